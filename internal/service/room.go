package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/metrics"
	"yihuitong/internal/repository"
)

const maxRoomNumberAttempts = 10

// NumberGenerator 返回 [MinRoomNumber, MaxRoomNumber] 内的一个房间号码。
type NumberGenerator func() (int, error)

// RandomRoomNumber 使用 crypto/rand 生成房间号码。
func RandomRoomNumber() (int, error) {
	span := big.NewInt(domain.MaxRoomNumber - domain.MinRoomNumber + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("failed to generate random room number: %w", err)
	}
	return domain.MinRoomNumber + int(n.Int64()), nil
}

// LiveRooms 判断房间是否有进行中的实时会话，由 MeetingService 实现。
type LiveRooms interface {
	IsLive(roomNumber string) bool
}

// RoomConfig 是 RoomService 的可调参数。
type RoomConfig struct {
	RoomTTL         time.Duration // 房间在没有状态刷新时的存活时间
	JoinDelay       time.Duration // 模拟的加入耗时
	RequireLiveRoom bool          // 加入时是否检查房间存在
}

// RoomService 负责创建房间、刷新房间状态与加入会议。
type RoomService struct {
	roomRepo        repository.RoomRepository
	clock           clock.Clock
	metrics         *metrics.Metrics
	generate        NumberGenerator
	live            LiveRooms
	roomTTL         time.Duration
	joinDelay       time.Duration
	requireLiveRoom bool
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, clk clock.Clock, m *metrics.Metrics, cfg RoomConfig) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.RoomTTL <= 0 {
		cfg.RoomTTL = 30 * time.Second
	}
	return &RoomService{
		roomRepo:        roomRepo,
		clock:           clk,
		metrics:         m,
		generate:        RandomRoomNumber,
		roomTTL:         cfg.RoomTTL,
		joinDelay:       cfg.JoinDelay,
		requireLiveRoom: cfg.RequireLiveRoom,
	}
}

// WithNumberGenerator 替换房间号码生成器
func (s *RoomService) WithNumberGenerator(g NumberGenerator) *RoomService {
	if g != nil {
		s.generate = g
	}
	return s
}

// WithLiveRooms 设置实时会话查询。进行中的房间号码不会再分配，加入检查也视其为存在。
func (s *RoomService) WithLiveRooms(l LiveRooms) *RoomService {
	s.live = l
	return s
}

// RoomTTL 返回房间的存活时间
func (s *RoomService) RoomTTL() time.Duration { return s.roomTTL }

// CreateRoom 为 host 生成一个未被占用的房间号码并登记房间。
func (s *RoomService) CreateRoom(ctx context.Context, host domain.Identity) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"host": host.Email, "operation": "createRoom"})

	for attempt := 1; attempt <= maxRoomNumberAttempts; attempt++ {
		n, err := s.generate()
		if err != nil {
			logCtx.WithError(err).Error("Failed to generate room number")
			return nil, ErrInternalServer
		}
		if n < domain.MinRoomNumber || n > domain.MaxRoomNumber {
			logCtx.WithField("generated", n).Error("Room number generator returned out-of-range value")
			return nil, ErrInternalServer
		}

		number := domain.FormatRoomNumber(n)
		if s.isLive(number) {
			logCtx.WithField("room_number", number).Warnf("Room number has a live meeting, retrying (attempt %d)...", attempt)
			continue
		}

		room := &domain.Room{
			Number:    number,
			HostEmail: host.Email,
			HostName:  host.DisplayName,
			CreatedAt: s.clock.Now(),
		}
		err = s.roomRepo.Create(ctx, room, s.roomTTL)
		if err == nil {
			s.metrics.RecordRoomCreated()
			logCtx.WithFields(logrus.Fields{"room_number": room.Number, "attempts": attempt}).Info("Room created successfully")
			return room, nil
		}
		if errors.Is(err, repository.ErrRoomTaken) {
			logCtx.WithField("room_number", room.Number).Warnf("Room number already in use, retrying (attempt %d)...", attempt)
			continue
		}
		logCtx.WithError(err).Error("Failed to register room")
		return nil, ErrInternalServer
	}

	logCtx.Errorf("Failed to find a free room number after %d attempts", maxRoomNumberAttempts)
	return nil, ErrRoomNumberExhausted
}

// RefreshStatus 延长房间存活时间，房间已过期或不存在时返回 ErrRoomNotFound。
func (s *RoomService) RefreshStatus(ctx context.Context, roomNumber string) error {
	if msg := domain.ValidateRoomNumber(roomNumber); msg != "" {
		return newValidationError("roomNumber", msg)
	}
	if err := s.roomRepo.Touch(ctx, roomNumber, s.roomTTL); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_number", roomNumber).Error("Failed to refresh room status")
		return ErrInternalServer
	}
	return nil
}

// JoinRoom 校验输入的房间号码，模拟加入耗时后返回规范化的号码。
// 默认不检查房间是否存在，开启 RequireLiveRoom 后不存在的房间返回 ErrRoomNotFound。
func (s *RoomService) JoinRoom(ctx context.Context, input string) (string, error) {
	roomNumber := strings.TrimSpace(input)
	logCtx := logrus.WithFields(logrus.Fields{"room_number": roomNumber, "operation": "joinRoom"})

	if msg := domain.ValidateRoomNumber(roomNumber); msg != "" {
		s.metrics.RecordJoin("invalid")
		return "", newValidationError("roomNumber", msg)
	}

	if err := simulateLatency(ctx, s.clock, s.joinDelay); err != nil {
		logCtx.WithError(err).Info("Join cancelled")
		return "", err
	}

	if s.requireLiveRoom && !s.isLive(roomNumber) {
		exists, err := s.roomRepo.Exists(ctx, roomNumber)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check room existence")
			return "", ErrInternalServer
		}
		if !exists {
			s.metrics.RecordJoin("not_found")
			logCtx.Warn("Join rejected: room not live")
			return "", ErrRoomNotFound
		}
	}

	s.metrics.RecordJoin("success")
	logCtx.Info("User joined room successfully")
	return roomNumber, nil
}

func (s *RoomService) isLive(roomNumber string) bool {
	return s.live != nil && s.live.IsLive(roomNumber)
}

// FindRoom 返回进行中的房间信息
func (s *RoomService) FindRoom(ctx context.Context, roomNumber string) (*domain.Room, error) {
	room, err := s.roomRepo.Find(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_number", roomNumber).Error("FindRoom: Repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}
