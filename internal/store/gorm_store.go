package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"codecollab-backend/internal/model"
)

// GormRoomStore is the Postgres-backed RoomStore.
type GormRoomStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewGormRoomStore creates a RoomStore on the given database handle.
func NewGormRoomStore(db *gorm.DB, log *zap.SugaredLogger) *GormRoomStore {
	return &GormRoomStore{db: db, log: log}
}

func (s *GormRoomStore) CreateRoom(ctx context.Context, roomID string, creator model.RoomMember) (*model.Room, error) {
	room := &model.Room{RoomID: roomID}
	creator.RoomID = roomID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(&creator).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create room: %v", ErrStoreUnavailable, err)
	}

	s.log.Infof("[RoomStore] Created room %s (creator %s)", roomID, creator.ClientID)
	return s.GetRoom(ctx, roomID)
}

func (s *GormRoomStore) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("room_members.id ASC")
		}).
		Where("room_id = ?", roomID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get room: %v", ErrStoreUnavailable, err)
	}
	return &room, nil
}

func (s *GormRoomStore) UpsertMember(ctx context.Context, roomID, clientID string, fields MemberFields) (*model.Room, bool, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, false, err
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member model.RoomMember
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND client_id = ?", roomID, clientID).
			First(&member).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			member = model.RoomMember{RoomID: roomID, ClientID: clientID}
			applyFields(&member, fields)
			// Concurrent first joins race on the (room_id, client_id) unique
			// index; the loser merges instead of duplicating.
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "room_id"}, {Name: "client_id"}},
				DoUpdates: clause.AssignmentColumns(fieldColumns(fields)),
			}).Create(&member)
			if res.Error != nil {
				return res.Error
			}
			created = true
			return nil
		case err != nil:
			return err
		}

		applyFields(&member, fields)
		return tx.Model(&model.RoomMember{}).
			Where("room_id = ? AND client_id = ?", roomID, clientID).
			Updates(map[string]interface{}{
				"name":          member.Name,
				"language":      member.Language,
				"connection_id": member.ConnectionID,
				"is_active":     member.IsActive,
			}).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: upsert member: %v", ErrStoreUnavailable, err)
	}

	room, err := s.GetRoom(ctx, roomID)
	return room, created, err
}

func (s *GormRoomStore) RemoveMemberConnection(ctx context.Context, connectionID string) ([]*model.Room, error) {
	if connectionID == "" {
		return nil, nil
	}

	var affected []model.RoomMember
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Find(&affected).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find by connection: %v", ErrStoreUnavailable, err)
	}
	if len(affected) == 0 {
		return nil, nil
	}

	// Member records are retained so a rejoin with the same clientId finds
	// its history; only the live-connection state is cleared.
	err = s.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("connection_id = ?", connectionID).
		Updates(map[string]interface{}{"connection_id": "", "is_active": false}).Error
	if err != nil {
		return nil, fmt.Errorf("%w: clear connection: %v", ErrStoreUnavailable, err)
	}

	seen := make(map[string]bool)
	var rooms []*model.Room
	for _, m := range affected {
		if seen[m.RoomID] {
			continue
		}
		seen[m.RoomID] = true
		room, err := s.GetRoom(ctx, m.RoomID)
		if err != nil {
			s.log.Warnf("[RoomStore] Reload after disconnect failed for room %s: %v", m.RoomID, err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *GormRoomStore) SetCode(ctx context.Context, roomID, code string) error {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("room_id = ?", roomID).
		Update("current_code", code)
	if res.Error != nil {
		return fmt.Errorf("%w: set code: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *GormRoomStore) UpsertUser(ctx context.Context, user model.User) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "language", "current_room_id", "last_seen"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("%w: upsert user: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormRoomStore) ClearUserRoom(ctx context.Context, clientID string) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("client_id = ?", clientID).
		Update("current_room_id", nil).Error
	if err != nil {
		return fmt.Errorf("%w: clear user room: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func applyFields(m *model.RoomMember, f MemberFields) {
	if f.Name != nil {
		m.Name = *f.Name
	}
	if f.Language != nil {
		m.Language = *f.Language
	}
	if f.ConnectionID != nil {
		m.ConnectionID = *f.ConnectionID
	}
	if f.IsActive != nil {
		m.IsActive = *f.IsActive
	}
}

func fieldColumns(f MemberFields) []string {
	cols := make([]string, 0, 4)
	if f.Name != nil {
		cols = append(cols, "name")
	}
	if f.Language != nil {
		cols = append(cols, "language")
	}
	if f.ConnectionID != nil {
		cols = append(cols, "connection_id")
	}
	if f.IsActive != nil {
		cols = append(cols, "is_active")
	}
	if len(cols) == 0 {
		cols = append(cols, "name")
	}
	return cols
}
