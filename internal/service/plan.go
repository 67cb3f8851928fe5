package service

import (
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/model"
)

type PlanService interface {
	List() []*dto.PlanResponse
}

type planServiceImpl struct {
	priceIDs map[string]string
}

func NewPlanService(priceIDs map[string]string) PlanService {
	return &planServiceImpl{
		priceIDs: priceIDs,
	}
}

func (s *planServiceImpl) List() []*dto.PlanResponse {
	catalog := model.Plans()
	out := make([]*dto.PlanResponse, len(catalog))
	for i, p := range catalog {
		out[i] = &dto.PlanResponse{
			Key:             string(p.Key),
			Days:            p.Days,
			TokenGrant:      p.TokenGrant,
			Price:           p.Price.StringFixed(2),
			Currency:        p.Currency,
			PriceConfigured: s.priceIDs[string(p.Key)] != "",
		}
	}
	return out
}
