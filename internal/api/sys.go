package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/pinpanel/internal/api/models"
)

// registerSysRoutes registers the host resource endpoint.
func (s *Server) registerSysRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-sys",
		Method:      http.MethodGet,
		Path:        "/api/sys",
		Summary:     "System Resources",
		Description: "CPU, memory and disk usage of the host. Metrics that cannot be read are reported as 0.",
		Tags:        []string{"system"},
		Errors:      []int{503},
	}, func(_ context.Context, _ *struct{}) (*models.SysResponse, error) {
		if s.sampler == nil {
			return nil, huma.Error503ServiceUnavailable("system sampling unavailable")
		}
		snap, err := s.sampler.Sample()
		if err != nil {
			s.logger.Debug("Partial system sample", "error", err)
		}
		return &models.SysResponse{
			Body: models.SysData{
				CPUPercent:  snap.CPUPercent,
				RAMPercent:  snap.RAMPercent,
				DiskPercent: snap.DiskPercent,
				Load1:       snap.Load1,
			},
		}, nil
	})
}
