package services

import (
	"context"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/repositories"

	"go.uber.org/zap"
)

type EquipmentServiceInterface interface {
	GetEquipment(ctx context.Context) ([]dto.EquipmentDTO, error)
}

type EquipmentService struct {
	equipmentRepository repositories.EquipmentRepositoryInterface
	logger              *zap.Logger
}

func NewEquipmentService(equipmentRepository repositories.EquipmentRepositoryInterface, logger *zap.Logger) *EquipmentService {
	return &EquipmentService{
		equipmentRepository: equipmentRepository,
		logger:              logger,
	}
}

func (s *EquipmentService) GetEquipment(ctx context.Context) ([]dto.EquipmentDTO, error) {
	items, err := s.equipmentRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]dto.EquipmentDTO, 0, len(items))
	for _, eq := range items {
		result = append(result, dto.EquipmentDTO{ID: eq.ID, Name: eq.Name, Code: eq.Code, ShopID: eq.ShopID})
	}
	return result, nil
}
