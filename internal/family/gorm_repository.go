package family

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chorebot-api/internal/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// userRow is the storage shape of a user: per-role fields are kept as one
// JSON document so the two record schemas stay free-form, as the original
// document store held them.
type userRow struct {
	ID        int64  `gorm:"primaryKey"`
	Role      string `gorm:"type:varchar(10);not null"`
	Record    []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

// inviteRow is the storage shape of an invite-code mapping.
type inviteRow struct {
	Code      string `gorm:"primaryKey;type:varchar(6)"`
	ParentID  int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (inviteRow) TableName() string { return "invites" }

// gormUserRepository implements UserRepository on Postgres
type gormUserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormUserRepository creates a GORM-backed user repository
func NewGormUserRepository(db *gorm.DB, logger *zap.Logger) UserRepository {
	return &gormUserRepository{db: db, logger: logger}
}

func (r *gormUserRepository) Get(id common.UserID) (*User, error) {
	var row userRow
	err := r.db.Where("id = ?", int64(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapRepositoryError(err, "get user")
	}

	user, err := decodeUser(&row)
	if err != nil {
		return nil, WrapRepositoryError(err, "decode user")
	}
	return user, nil
}

func (r *gormUserRepository) Save(user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	row, err := encodeUser(user)
	if err != nil {
		return WrapRepositoryError(err, "encode user")
	}

	r.logger.Debug("Saving user",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	// Last write wins, full document replace.
	err = r.db.Save(row).Error
	if err != nil {
		return WrapRepositoryError(err, "save user")
	}
	return nil
}

// Update reads the document, applies mutate and writes it back. There is no
// transaction around the read and the write; see UserRepository.
func (r *gormUserRepository) Update(id common.UserID, mutate func(*User) error) error {
	user, err := r.Get(id)
	if err != nil {
		return err
	}
	if err := mutate(user); err != nil {
		return err
	}
	return r.Save(user)
}

func encodeUser(user *User) (*userRow, error) {
	var record interface{}
	switch user.Role {
	case common.RoleParent:
		record = user.Parent
	case common.RoleChild:
		record = user.Child
	default:
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return &userRow{ID: int64(user.ID), Role: string(user.Role), Record: data}, nil
}

func decodeUser(row *userRow) (*User, error) {
	user := &User{ID: common.UserID(row.ID), Role: common.Role(row.Role)}

	switch user.Role {
	case common.RoleParent:
		var rec ParentRecord
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal parent record: %w", err)
		}
		if rec.Children == nil {
			rec.Children = []common.UserID{}
		}
		if rec.Tasks == nil {
			rec.Tasks = map[string]ParentTask{}
		}
		user.Parent = &rec
	case common.RoleChild:
		var rec ChildRecord
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal child record: %w", err)
		}
		if rec.Tasks == nil {
			rec.Tasks = map[string]ChildTask{}
		}
		user.Child = &rec
	default:
		return nil, fmt.Errorf("unknown stored role %q", row.Role)
	}

	return user, nil
}

// gormInviteRepository implements InviteRepository on Postgres
type gormInviteRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormInviteRepository creates a GORM-backed invite registry
func NewGormInviteRepository(db *gorm.DB, logger *zap.Logger) InviteRepository {
	return &gormInviteRepository{db: db, logger: logger}
}

func (r *gormInviteRepository) Get(code string) (*Invite, error) {
	var row inviteRow
	err := r.db.Where("code = ?", code).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, WrapRepositoryError(err, "get invite")
	}
	return &Invite{Code: row.Code, ParentID: common.UserID(row.ParentID)}, nil
}

func (r *gormInviteRepository) Put(code string, parentID common.UserID) error {
	r.logger.Debug("Registering invite",
		zap.String("code", code),
		zap.String("parent_id", parentID.String()))

	err := r.db.Save(&inviteRow{Code: code, ParentID: int64(parentID)}).Error
	if err != nil {
		return WrapRepositoryError(err, "put invite")
	}
	return nil
}
