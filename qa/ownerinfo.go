package qa

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const defaultOwnerType = "业主"

// ownerContext describes the caller: name, owner type, and their primary
// active residence when one resolves. A failed residence lookup still
// returns the basic block.
func (s *Service) ownerContext(ctx context.Context, ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", nil
	}

	owner, err := s.owners.Owner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("【当前业主信息】\n")
	if owner.Name != "" {
		sb.WriteString("姓名：")
		sb.WriteString(owner.Name)
		sb.WriteString("\n")
	}

	ownerType := owner.Type
	if ownerType == "" {
		ownerType = defaultOwnerType
	}
	sb.WriteString("业主类型：")
	sb.WriteString(ownerType)
	sb.WriteString("\n")

	residence, resErr := s.residences.PrimaryResidence(ctx, ownerID)
	if resErr != nil {
		s.logger.Debug("primary residence lookup failed", zap.Int64("owner_id", ownerID), zap.Error(resErr))
	} else if residence != nil {
		if residence.RoomNo != "" {
			sb.WriteString("房屋：")
			sb.WriteString(residence.RoomNo)
			sb.WriteString("\n")
		}
		if residence.Layout != "" {
			sb.WriteString("户型：")
			sb.WriteString(residence.Layout)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
