package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"virtual-economy/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("notification.service",
	fx.Provide(NewService),
)

type Service struct {
	node          *snowflake.Node
	notifications repository.Repository[Notification]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:          p.Node,
		notifications: repository.ProvideStore[Notification](p.DB),
	}
}

// CreateTx writes a notification inside tx so it commits with the event it describes.
func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, in Input) (*Notification, error) {
	data, err := json.Marshal(in.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal notification data: %w", err)
	}

	n := &Notification{
		ID:     s.node.Generate().String(),
		UserID: in.UserID,
		Type:   in.Type,
		Title:  in.Title,
		Body:   in.Body,
		Data:   datatypes.JSON(data),
	}
	if err := s.notifications.WithTrx(tx).Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
