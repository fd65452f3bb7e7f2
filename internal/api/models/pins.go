package models

// PinData is the public shape of one configured pin.
type PinData struct {
	Pin   int    `json:"pin" example:"17" doc:"Pin identifier (BCM numbering)"`
	Name  string `json:"name" example:"Power Relay" doc:"Display name"`
	Mode  string `json:"mode" example:"output" enum:"output,input" doc:"Pin direction"`
	Value int    `json:"value" example:"0" minimum:"0" maximum:"1" doc:"Logical value for outputs, live level for inputs"`
}

type PinListData struct {
	Pins  []PinData `json:"pins" doc:"Configured pins in configuration order"`
	Count int       `json:"count" example:"1" doc:"Number of configured pins"`
}

type PinListResponse struct {
	Body PinListData
}

type PinResponse struct {
	Body PinData
}

type AddPinRequestData struct {
	Pin   int    `json:"pin" example:"27" doc:"Pin identifier (BCM numbering)"`
	Name  string `json:"name,omitempty" example:"Door Sensor" doc:"Display name, defaults to 'Pin N'"`
	Mode  string `json:"mode,omitempty" example:"input" doc:"'input'/'in' for input, anything else is output"`
	Value int    `json:"value,omitempty" example:"0" doc:"Initial output value, ignored for inputs. Only 0 and 1 are accepted; other numbers are rejected with 400 rather than coerced"`
}

type AddPinRequest struct {
	Body AddPinRequestData
}

type UpdatePinRequestData struct {
	Name  *string `json:"name,omitempty" example:"Garage Door" doc:"New display name"`
	Value *int    `json:"value,omitempty" example:"1" doc:"New output value. Only 0 and 1 are accepted; other numbers are rejected with 400 rather than coerced. Input pins reject any value"`
}

type UpdatePinRequest struct {
	Pin  int `path:"pin" example:"17" doc:"Pin identifier"`
	Body UpdatePinRequestData
}

type PinPathRequest struct {
	Pin int `path:"pin" example:"17" doc:"Pin identifier"`
}

type DeletePinData struct {
	Pin     int    `json:"pin" example:"17" doc:"Removed pin"`
	Message string `json:"message" example:"Pin removed" doc:"Status message"`
}

type DeletePinResponse struct {
	Body DeletePinData
}

// Snapshot models
type SnapshotListData struct {
	Dates []string `json:"dates" doc:"Snapshot dates (YYYY-MM-DD), newest first"`
}

type SnapshotListResponse struct {
	Body SnapshotListData
}

type SnapshotListRequest struct {
	ExcludeToday bool `query:"exclude_today" doc:"Leave out today's snapshot"`
}

type DatePathRequest struct {
	Date string `path:"date" example:"2025-01-27" doc:"Date as YYYY-MM-DD or YYYYMMDD"`
}

// Log models
type LogDatesData struct {
	Dates []string `json:"dates" doc:"Dates with a log file (YYYY-MM-DD), newest first"`
}

type LogDatesResponse struct {
	Body LogDatesData
}

type LogListRequest struct {
	ExcludeToday bool `query:"exclude_today" doc:"Leave out today's file, which is still being written"`
}

// FileResponse carries a raw file download.
type FileResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}
