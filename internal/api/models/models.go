package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Backend string `json:"backend" example:"cdev" doc:"Active GPIO backend"`
}

type HealthResponse struct {
	Body HealthData
}

// Error response
type ErrorData struct {
	Status  string `json:"status" example:"error" doc:"Error status"`
	Message string `json:"message" example:"Pin not found" doc:"Error message"`
}

type ErrorResponse struct {
	Body ErrorData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// System resource models
type SysData struct {
	CPUPercent  float64 `json:"cpu" example:"12.5" doc:"CPU utilisation percent since the previous sample"`
	RAMPercent  float64 `json:"ram" example:"41.3" doc:"Used memory percent"`
	DiskPercent float64 `json:"disk" example:"63.0" doc:"Used disk percent of the data directory filesystem"`
	Load1       float64 `json:"load1" example:"0.42" doc:"1 minute load average"`
}

type SysResponse struct {
	Body SysData
}
