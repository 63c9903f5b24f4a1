package qa

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	maxResidenceLines = 3
	maxVehicleLines   = 3
	maxMeterLines     = 5
)

// Trigger substrings per structured domain, matched against the lowercased
// question. The sets are disjoint but more than one block may fire for a
// single question.
var (
	housingTriggers = []string{"房", "户型", "面积", "地址"}
	vehicleTriggers = []string{"车", "停车", "车位"}
	feeTriggers     = []string{"费", "缴", "账单", "欠"}
	meterTriggers   = []string{"水", "电", "气", "表"}
)

// structuredContext runs the question-triggered domain lookups. The fired
// sub-lookups run concurrently, each failing closed to an empty block, and
// the result keeps the fixed housing/vehicle/fee/meter order.
func (s *Service) structuredContext(ctx context.Context, question string, ownerID int64) (string, error) {
	lower := strings.ToLower(question)

	blocks := []struct {
		triggers []string
		heading  string
		source   string
		fetch    func(context.Context) (string, error)
	}{
		{housingTriggers, "【您的房屋信息】", "housing", func(ctx context.Context) (string, error) {
			return s.housingInfo(ctx, ownerID)
		}},
		{vehicleTriggers, "【您的车辆信息】", "vehicles", func(ctx context.Context) (string, error) {
			return s.vehicleInfo(ctx, ownerID)
		}},
		{feeTriggers, "【您的费用信息】", "fees", func(ctx context.Context) (string, error) {
			return s.feeInfo(ctx, ownerID)
		}},
		{meterTriggers, "【您的抄表信息】", "meters", func(ctx context.Context) (string, error) {
			return s.meterInfo(ctx, ownerID)
		}},
	}

	results := make([]string, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range blocks {
		if !containsAnySubstring(lower, block.triggers) {
			continue
		}
		i, block := i, block
		g.Go(func() error {
			results[i] = attempt(s.logger, block.source, func() (string, error) {
				return block.fetch(gctx)
			})
			return nil
		})
	}
	_ = g.Wait()

	var sb strings.Builder
	for i, block := range blocks {
		if results[i] == "" {
			continue
		}
		sb.WriteString(block.heading)
		sb.WriteString("\n")
		sb.WriteString(results[i])
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func (s *Service) housingInfo(ctx context.Context, ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", nil
	}

	residences, err := s.residences.ActiveResidences(ctx, ownerID, maxResidenceLines)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, residence := range residences {
		if residence.RoomNo == "" {
			continue
		}
		sb.WriteString("• 房号：")
		sb.WriteString(residence.RoomNo)
		if residence.Layout != "" {
			sb.WriteString("，户型：")
			sb.WriteString(residence.Layout)
		}
		if residence.BuildingArea != "" {
			sb.WriteString("，建筑面积：")
			sb.WriteString(residence.BuildingArea)
			sb.WriteString("㎡")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (s *Service) vehicleInfo(ctx context.Context, ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", nil
	}

	vehicles, err := s.vehicles.ActiveVehicles(ctx, ownerID, maxVehicleLines)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, vehicle := range vehicles {
		if vehicle.Plate == "" {
			continue
		}
		sb.WriteString("• 车牌：")
		sb.WriteString(vehicle.Plate)
		if vehicle.Brand != "" {
			sb.WriteString("，品牌：")
			sb.WriteString(vehicle.Brand)
			if vehicle.Model != "" {
				sb.WriteString(" ")
				sb.WriteString(vehicle.Model)
			}
		}
		if vehicle.Type != "" {
			sb.WriteString("，类型：")
			sb.WriteString(vehicle.Type)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// feeInfo is a coarse statement derived from residence count. There is no
// real ledger behind it; billing questions go to the support staff.
func (s *Service) feeInfo(ctx context.Context, ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", nil
	}

	count, err := s.residences.CountActiveResidences(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if count <= 0 {
		return "", nil
	}

	return fmt.Sprintf("您名下有 %d 套房产。物业费缴纳请咨询物业客服。\n", count), nil
}

func (s *Service) meterInfo(ctx context.Context, ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", nil
	}

	residence, err := s.residences.PrimaryResidence(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if residence == nil {
		return "", nil
	}

	meters, err := s.meters.ActiveMeters(ctx, residence.HouseID, maxMeterLines)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, meter := range meters {
		sb.WriteString("• ")
		sb.WriteString(meter.Category)
		sb.WriteString("：当前读数 ")
		sb.WriteString(meter.Reading)
		sb.WriteString(meter.Unit)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func containsAnySubstring(text string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}
