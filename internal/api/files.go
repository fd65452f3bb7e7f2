package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/logging"
	"github.com/smazurov/pinpanel/internal/pins/store"
)

// registerSnapshotRoutes registers the dated configuration snapshot endpoints.
func (s *Server) registerSnapshotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-config-snapshots",
		Method:      http.MethodGet,
		Path:        "/api/config/snapshots",
		Summary:     "List Config Snapshots",
		Description: "Dates that have a configuration snapshot, newest first",
		Tags:        []string{"config"},
		Errors:      []int{500},
	}, func(_ context.Context, input *models.SnapshotListRequest) (*models.SnapshotListResponse, error) {
		dates, err := s.snapshots.ListSnapshots(input.ExcludeToday)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list snapshots", err)
		}
		return &models.SnapshotListResponse{Body: models.SnapshotListData{Dates: dates}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-config-snapshot",
		Method:      http.MethodGet,
		Path:        "/api/config/snapshots/{date}",
		Summary:     "Download Config Snapshot",
		Description: "Configuration document as saved on the given day. Today falls back to the live file.",
		Tags:        []string{"config"},
		Errors:      []int{400, 404, 500},
	}, func(_ context.Context, input *models.DatePathRequest) (*models.FileResponse, error) {
		path, err := s.snapshots.ResolveSnapshot(input.Date)
		if err != nil {
			return nil, s.mapPinError(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fileError(err)
		}
		return &models.FileResponse{
			ContentType:        "application/json",
			ContentDisposition: attachment("cfg-" + input.Date + ".json"),
			Body:               data,
		}, nil
	})
}

// registerLogRoutes registers the daily log file endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-log-dates",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "List Log Files",
		Description: "Dates that have a log file, newest first",
		Tags:        []string{"logs"},
		Errors:      []int{500},
	}, func(_ context.Context, input *models.LogListRequest) (*models.LogDatesResponse, error) {
		dates, err := logging.ListLogDates(s.logDir)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list log files", err)
		}
		if input.ExcludeToday {
			today := s.now().Format(logging.DateLayout)
			dates = slices.DeleteFunc(dates, func(d string) bool { return d == today })
		}
		return &models.LogDatesResponse{Body: models.LogDatesData{Dates: dates}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-log-file",
		Method:      http.MethodGet,
		Path:        "/api/logs/{date}",
		Summary:     "Download Log File",
		Description: "Raw log file for one day",
		Tags:        []string{"logs"},
		Errors:      []int{400, 404, 500},
	}, func(_ context.Context, input *models.DatePathRequest) (*models.FileResponse, error) {
		iso, err := store.ParseDate(input.Date)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		path, err := logging.LogPathForDate(s.logDir, iso)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fileError(err)
		}
		return &models.FileResponse{
			ContentType:        "text/plain; charset=utf-8",
			ContentDisposition: attachment(iso + ".log"),
			Body:               data,
		}, nil
	})
}

func fileError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return huma.Error404NotFound("file not found")
	}
	return huma.Error500InternalServerError("failed to read file", err)
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
