// Package session 终端会话管理
//
// 每个会话的处理严格串行(会话锁),不同会话并行。
// 会话状态常驻内存,每次修改后把快照写入Redis;
// 进程重启或内存淘汰后,按token从快照恢复。
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/domain/cart"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// entry 会话及其锁
type entry struct {
	mu    sync.Mutex
	state *State
}

// Manager 会话管理器(并发安全)
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	store  cart.SnapshotStore
	logger *zap.Logger
}

// NewManager 创建会话管理器
func NewManager(store cart.SnapshotStore, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		store:    store,
		logger:   logger,
	}
}

// Create 创建新会话,返回token
func (m *Manager) Create(ctx context.Context, fn func(st *State) error) (string, error) {
	token := uuid.NewString()
	e := &entry{state: newState(token)}

	e.mu.Lock()
	defer e.mu.Unlock()

	m.mu.Lock()
	m.sessions[token] = e
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)

	if fn != nil {
		if err := fn(e.state); err != nil {
			m.drop(token)
			return "", err
		}
	}
	m.save(ctx, e.state)
	return token, nil
}

// With 在会话锁内执行fn,fn成功后保存快照
// 内存中没有该会话时尝试从快照恢复,都没有返回ErrSessionNotFound
func (m *Manager) With(ctx context.Context, token string, fn func(st *State) error) error {
	if token == "" {
		return apperrors.ErrSessionRequired
	}

	e, err := m.lookup(ctx, token)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 等锁期间会话可能已被清理
	if !m.alive(token, e) {
		return apperrors.ErrSessionNotFound
	}

	e.state.touchedAt = time.Now()
	if err := fn(e.state); err != nil {
		return err
	}
	m.save(ctx, e.state)
	return nil
}

// Each 依次对每个内存中的会话执行fn(后台刷新、库存推送使用)
// 单个会话失败只记录日志,不影响其他会话
func (m *Manager) Each(ctx context.Context, fn func(st *State) error) {
	for _, e := range m.snapshotEntries() {
		if ctx.Err() != nil {
			return
		}
		e.mu.Lock()
		if err := fn(e.state); err != nil {
			m.logger.Warn("session task failed",
				zap.String("token", e.state.Token),
				zap.Error(err),
			)
		}
		e.mu.Unlock()
	}
}

// Delete 结束会话并删除快照
func (m *Manager) Delete(ctx context.Context, token string) error {
	m.drop(token)
	return m.store.Delete(ctx, token)
}

// Sweep 从内存淘汰超过ttl未访问的会话(快照保留在Redis,之后仍可恢复)
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	evicted := 0
	for _, e := range m.snapshotEntries() {
		if !e.mu.TryLock() {
			continue
		}
		if e.state.touchedAt.Before(cutoff) {
			m.drop(e.state.Token)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}

// Len 内存中的会话数量
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) lookup(ctx context.Context, token string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.sessions[token]
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	snap, err := m.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	snap.Token = token

	m.mu.Lock()
	defer m.mu.Unlock()
	// 并发恢复同一个会话时以先放入的为准
	if e, ok := m.sessions[token]; ok {
		return e, nil
	}
	e = &entry{state: restoreState(snap)}
	m.sessions[token] = e
	metrics.SetActiveSessions(len(m.sessions))

	m.logger.Info("session restored",
		zap.String("token", token),
		zap.Int("lines", e.state.Ledger.Len()),
	)
	return e, nil
}

func (m *Manager) alive(token string, e *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[token] == e
}

func (m *Manager) drop(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)
}

func (m *Manager) snapshotEntries() []*entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e)
	}
	return out
}

// save 保存快照,失败只记录日志(快照是建议性数据)
func (m *Manager) save(ctx context.Context, st *State) {
	if err := m.store.Save(ctx, st.Snapshot()); err != nil {
		m.logger.Warn("save session snapshot failed",
			zap.String("token", st.Token),
			zap.Error(err),
		)
	}
}
