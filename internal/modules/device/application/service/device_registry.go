package service

import (
	"context"
	"strings"
	"time"

	"MediaHub/internal/modules/device/domain/entity"
	"MediaHub/internal/modules/device/domain/repository"
	"MediaHub/pkg/util"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const DefaultMaxDevicesPerUser = 20

type RegisterParams struct {
	UserId     int64
	DeviceId   string
	Platform   string
	Token      *string
	DeviceName *string
}

// DeviceRegistry 维护设备与当前登录用户的绑定及其推送 token
type DeviceRegistry interface {
	Register(ctx context.Context, p RegisterParams) (*entity.UserDevice, error)
	Deactivate(ctx context.Context, userID int64, deviceID string) error
	// TokensFor 仅返回 active 绑定的 token，没有 token 的用户映射为空切片
	TokensFor(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	ListDevices(ctx context.Context, userID int64) ([]entity.UserDevice, error)
}

type deviceRegistryImpl struct {
	uow         repository.DeviceUnitOfWork
	bindingRepo repository.UserDeviceRepository
	maxDevices  int
	now         func() time.Time
}

func NewDeviceRegistry(uow repository.DeviceUnitOfWork, bindingRepo repository.UserDeviceRepository, maxDevices int) DeviceRegistry {
	if maxDevices <= 0 {
		maxDevices = DefaultMaxDevicesPerUser
	}
	return &deviceRegistryImpl{
		uow:         uow,
		bindingRepo: bindingRepo,
		maxDevices:  maxDevices,
		now:         time.Now,
	}
}

func (s *deviceRegistryImpl) Register(ctx context.Context, p RegisterParams) (*entity.UserDevice, error) {
	p.DeviceId = strings.TrimSpace(p.DeviceId)
	p.Platform = strings.ToLower(strings.TrimSpace(p.Platform))
	if p.UserId <= 0 || p.DeviceId == "" {
		return nil, xerr.New(xerr.BadRequest, "device_id 不能为空")
	}
	if !entity.ValidPlatform(p.Platform) {
		return nil, xerr.New(xerr.BadRequest, "不支持的设备平台")
	}
	if p.Token != nil {
		t := strings.TrimSpace(*p.Token)
		p.Token = &t
	}

	now := s.now()
	var out *entity.UserDevice
	err := s.uow.Transaction(ctx, func(deviceRepo repository.DeviceRepository, bindingRepo repository.UserDeviceRepository) error {
		if err := upsertDevice(ctx, deviceRepo, p, now); err != nil {
			return err
		}

		// 单设备单会话：先让该设备上的所有 active 绑定失效
		if _, err := bindingRepo.DeactivateByDevice(ctx, p.DeviceId); err != nil {
			return err
		}

		existing, err := bindingRepo.Get(ctx, p.UserId, p.DeviceId)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.IsActive = true
			existing.LastSeenAt = now
			if p.Token != nil {
				existing.FcmToken = p.Token
			}
			if err := bindingRepo.Save(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		}

		if err := s.evictIfFull(ctx, bindingRepo, p.UserId); err != nil {
			return err
		}

		binding := &entity.UserDevice{
			UserId:     p.UserId,
			DeviceId:   p.DeviceId,
			FcmToken:   p.Token,
			IsActive:   true,
			LastSeenAt: now,
		}
		if err := bindingRepo.Create(ctx, binding); err != nil {
			return err
		}
		out = binding
		return nil
	})
	if err != nil {
		zlog.Error("register device failed", zap.Int64("user_id", p.UserId), zap.String("device_id", p.DeviceId), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return out, nil
}

func upsertDevice(ctx context.Context, deviceRepo repository.DeviceRepository, p RegisterParams, now time.Time) error {
	name := ""
	if p.DeviceName != nil {
		name = strings.TrimSpace(*p.DeviceName)
	}

	dev, err := deviceRepo.GetByDeviceID(ctx, p.DeviceId)
	if err != nil {
		return err
	}
	if dev == nil {
		err = deviceRepo.Create(ctx, &entity.Device{
			DeviceId:   p.DeviceId,
			Platform:   p.Platform,
			DeviceName: name,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		// 并发注册同一台新设备时另一方已插入，视为已存在
		if err != nil && !util.IsDuplicateKey(err) {
			return err
		}
		return nil
	}
	if name != "" && name != dev.DeviceName {
		return deviceRepo.UpdateName(ctx, p.DeviceId, name)
	}
	return nil
}

// evictIfFull 用户绑定数已达上限时，删除该用户自己 last_seen_at 最早的一条绑定
func (s *deviceRegistryImpl) evictIfFull(ctx context.Context, bindingRepo repository.UserDeviceRepository, userID int64) error {
	n, err := bindingRepo.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	for ; n >= int64(s.maxDevices); n-- {
		oldest, err := bindingRepo.OldestByUser(ctx, userID)
		if err != nil {
			return err
		}
		if oldest == nil {
			return nil
		}
		if err := bindingRepo.Delete(ctx, oldest.Id); err != nil {
			return err
		}
		zlog.Info("evicted least recently seen device binding",
			zap.Int64("user_id", userID), zap.String("device_id", oldest.DeviceId))
	}
	return nil
}

func (s *deviceRegistryImpl) Deactivate(ctx context.Context, userID int64, deviceID string) error {
	deviceID = strings.TrimSpace(deviceID)
	if userID <= 0 || deviceID == "" {
		return xerr.New(xerr.BadRequest, "device_id 不能为空")
	}
	if _, err := s.bindingRepo.Deactivate(ctx, userID, deviceID); err != nil {
		zlog.Error("deactivate device failed", zap.Int64("user_id", userID), zap.String("device_id", deviceID), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func (s *deviceRegistryImpl) TokensFor(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = []string{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return out, nil
	}

	bindings, err := s.bindingRepo.ListActiveByUsers(ctx, ids)
	if err != nil {
		zlog.Error("list active device tokens failed", zap.Int64s("user_ids", ids), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	for i := range bindings {
		b := bindings[i]
		if !b.IsActive || b.Token() == "" {
			continue
		}
		if _, ok := out[b.UserId]; !ok {
			continue
		}
		out[b.UserId] = append(out[b.UserId], b.Token())
	}
	return out, nil
}

func (s *deviceRegistryImpl) ListDevices(ctx context.Context, userID int64) ([]entity.UserDevice, error) {
	if userID <= 0 {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	list, err := s.bindingRepo.ListByUser(ctx, userID)
	if err != nil {
		zlog.Error("list devices failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return list, nil
}
