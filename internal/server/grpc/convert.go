package grpc

import (
	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/services"
)

func (s *GRPCServer) lot(l *models.Lot) *api.Lot {
	return services.LotToAPI(l, s.increment)
}

func (s *GRPCServer) lots(in []*models.Lot) *api.LotsResponse {
	out := &api.LotsResponse{Lots: make([]api.Lot, 0, len(in))}
	for _, l := range in {
		out.Lots = append(out.Lots, *s.lot(l))
	}
	return out
}
