package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ── 测试辅助 ──

type mockStore struct {
	repo          *repository.Repository
	users         *mockUserRepo
	services      *mockServiceRepo
	bookings      *mockBookingRepo
	availability  *mockAvailabilityRepo
	schedules     *mockScheduleRepo
	monthSchedule *mockMonthScheduleRepo
}

// newMockRepository 构造全部基于内存的 Repository 聚合
func newMockRepository() (*repository.Repository, *mockStore) {
	store := &mockStore{
		users:         newMockUserRepo(),
		services:      newMockServiceRepo(),
		bookings:      newMockBookingRepo(),
		availability:  newMockAvailabilityRepo(),
		schedules:     newMockScheduleRepo(),
		monthSchedule: newMockMonthScheduleRepo(),
	}
	repo := &repository.Repository{
		User:          store.users,
		Service:       store.services,
		Booking:       store.bookings,
		Availability:  store.availability,
		Schedule:      store.schedules,
		MonthSchedule: store.monthSchedule,
	}
	repo.Tx = newMockTxManager(repo)
	store.repo = repo
	return repo, store
}

func (s *mockStore) addStaff(id, name string) *model.User {
	u := &model.User{UserID: id, Name: name, Email: id + "@cleanbook.test", Role: model.RoleStaff, Status: model.UserStatusActive}
	s.users.users[id] = u
	return u
}

func (s *mockStore) addUser(id, role, status string) *model.User {
	u := &model.User{UserID: id, Name: id, Email: id + "@cleanbook.test", Role: role, Status: status}
	s.users.users[id] = u
	return u
}

func (s *mockStore) addService(id string, minutes int) {
	s.services.services[id] = &model.CleaningService{ServiceID: id, Name: id, DurationMinutes: minutes, IsActive: true}
}

func (s *mockStore) addBooking(id string) *model.Booking {
	b := &model.Booking{BookingID: id, CustomerID: "cust-001", ServiceID: "svc-std", Status: "confirmed"}
	s.bookings.bookings[id] = b
	return b
}

// ── Mock TxManager ──
// 按保洁员持有互斥锁，模拟 SELECT ... FOR UPDATE 的串行化效果

type mockTxManager struct {
	repo  *repository.Repository
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	tx    sync.Mutex
}

func newMockTxManager(repo *repository.Repository) *mockTxManager {
	return &mockTxManager{repo: repo, locks: make(map[string]*sync.Mutex)}
}

func (m *mockTxManager) staffLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *mockTxManager) WithStaffLock(ctx context.Context, staffIDs []string, fn repository.TxFunc) error {
	ids := append([]string(nil), staffIDs...)
	sort.Strings(ids)
	var held []*sync.Mutex
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		l := m.staffLock(id)
		l.Lock()
		held = append(held, l)
	}
	defer func() {
		for _, l := range held {
			l.Unlock()
		}
	}()
	return fn(ctx, m.repo)
}

func (m *mockTxManager) WithTx(ctx context.Context, fn repository.TxFunc) error {
	m.tx.Lock()
	defer m.tx.Unlock()
	return fn(ctx, m.repo)
}

func (m *mockTxManager) ReadSnapshot(ctx context.Context, fn repository.TxFunc) error {
	return fn(ctx, m.repo)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListActiveStaff(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var want map[string]bool
	if ids != nil {
		want = make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
	}
	var result []model.User
	for _, u := range m.users {
		if !u.IsActiveStaff() {
			continue
		}
		if want != nil && !want[u.UserID] {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock ServiceRepository ──

type mockServiceRepo struct {
	services map[string]*model.CleaningService
}

func newMockServiceRepo() *mockServiceRepo {
	return &mockServiceRepo{services: make(map[string]*model.CleaningService)}
}

func (m *mockServiceRepo) GetByID(_ context.Context, id string) (*model.CleaningService, error) {
	if s, ok := m.services[id]; ok && s.IsActive {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) SetPrimarySchedule(_ context.Context, bookingID string, scheduleID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[bookingID]; ok {
		if scheduleID == nil {
			b.PrimaryScheduleID = nil
		} else {
			id := *scheduleID
			b.PrimaryScheduleID = &id
		}
	}
	return nil
}

func (m *mockBookingRepo) AssignPrimaryIfEmpty(_ context.Context, bookingID, scheduleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.PrimaryScheduleID != nil {
		return false, nil
	}
	id := scheduleID
	b.PrimaryScheduleID = &id
	return true, nil
}

func (m *mockBookingRepo) primaryOf(bookingID string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[bookingID]; ok {
		return b.PrimaryScheduleID
	}
	return nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	mu    sync.Mutex
	seq   int
	slots map[string]*model.StaffAvailability
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{slots: make(map[string]*model.StaffAvailability)}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, slot *model.StaffAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot.AvailabilityID == "" {
		m.seq++
		slot.AvailabilityID = fmt.Sprintf("slot-%03d", m.seq)
	}
	cp := *slot
	m.slots[slot.AvailabilityID] = &cp
	return nil
}

func (m *mockAvailabilityRepo) GetByID(_ context.Context, id string) (*model.StaffAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) filter(keep func(*model.StaffAvailability) bool) []model.StaffAvailability {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.StaffAvailability
	for _, s := range m.slots {
		if keep(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

func (m *mockAvailabilityRepo) ListByStaff(_ context.Context, staffID string) ([]model.StaffAvailability, error) {
	return m.filter(func(s *model.StaffAvailability) bool { return s.StaffID == staffID }), nil
}

func (m *mockAvailabilityRepo) ListByStaffAndDay(_ context.Context, staffID string, dayOfWeek int) ([]model.StaffAvailability, error) {
	return m.filter(func(s *model.StaffAvailability) bool {
		return s.StaffID == staffID && s.DayOfWeek == dayOfWeek
	}), nil
}

func (m *mockAvailabilityRepo) ListAvailableByDay(_ context.Context, dayOfWeek int) ([]model.StaffAvailability, error) {
	return m.filter(func(s *model.StaffAvailability) bool {
		return s.DayOfWeek == dayOfWeek && s.IsAvailable
	}), nil
}

func (m *mockAvailabilityRepo) Update(_ context.Context, slot *model.StaffAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *slot
	m.slots[slot.AvailabilityID] = &cp
	return nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	mu        sync.Mutex
	seq       int
	schedules map[string]*model.Schedule
	// createDelay 放大“查冲突”与“写入”之间的窗口，用于并发测试
	createDelay time.Duration
	// afterGet 在 GetByID 返回前回调（不持有 mu），用于模拟读取后的并发修改
	afterGet func(id string)
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	if m.createDelay > 0 {
		time.Sleep(m.createDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.ScheduleID == "" {
		m.seq++
		schedule.ScheduleID = fmt.Sprintf("sch-%03d", m.seq)
	}
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	now := time.Now().UTC()
	schedule.CreatedAt, schedule.UpdatedAt = now, now
	cp := *schedule
	cp.Staff = nil
	m.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	m.mu.Lock()
	s, ok := m.schedules[id]
	var cp model.Schedule
	if ok {
		cp = *s
	}
	hook := m.afterGet
	m.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &cp, nil
}

func (m *mockScheduleRepo) filter(keep func(*model.Schedule) bool) []model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Schedule
	for _, s := range m.schedules {
		if keep(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ScheduleID < result[j].ScheduleID
	})
	return result
}

func (m *mockScheduleRepo) List(_ context.Context, f repository.ScheduleFilter) ([]model.Schedule, int64, error) {
	all := m.filter(func(s *model.Schedule) bool {
		if f.StaffID != "" && s.StaffID != f.StaffID {
			return false
		}
		if f.BookingID != "" && (s.BookingID == nil || *s.BookingID != f.BookingID) {
			return false
		}
		if f.From != nil && !s.EndTime.After(*f.From) {
			return false
		}
		if f.To != nil && !s.StartTime.Before(*f.To) {
			return false
		}
		return true
	})
	total := int64(len(all))
	if f.Limit > 0 {
		if f.Offset >= len(all) {
			return []model.Schedule{}, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[f.Offset:end]
	}
	return all, total, nil
}

func (m *mockScheduleRepo) ListStaffWindow(_ context.Context, staffID string, start, end time.Time, excludeID string) ([]model.Schedule, error) {
	return m.filter(func(s *model.Schedule) bool {
		return s.StaffID == staffID && s.ScheduleID != excludeID &&
			s.StartTime.Before(end) && s.EndTime.After(start)
	}), nil
}

func (m *mockScheduleRepo) ListWindow(_ context.Context, start, end time.Time) ([]model.Schedule, error) {
	return m.filter(func(s *model.Schedule) bool {
		return s.StartTime.Before(end) && s.EndTime.After(start)
	}), nil
}

func (m *mockScheduleRepo) ListByBooking(_ context.Context, bookingID string) ([]model.Schedule, error) {
	return m.filter(func(s *model.Schedule) bool {
		return s.BookingID != nil && *s.BookingID == bookingID
	}), nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schedules[schedule.ScheduleID]
	if !ok || cur.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version++
	schedule.UpdatedAt = time.Now().UTC()
	cp := *schedule
	cp.Staff = nil
	m.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

// ── Mock MonthScheduleRepository ──

type mockMonthScheduleRepo struct {
	mu    sync.Mutex
	seq   int
	rules map[string]*model.MonthSchedule
	// failBatch 非空时 BatchCreate 返回该错误且不写入
	failBatch error
}

func newMockMonthScheduleRepo() *mockMonthScheduleRepo {
	return &mockMonthScheduleRepo{rules: make(map[string]*model.MonthSchedule)}
}

func (m *mockMonthScheduleRepo) BatchCreate(_ context.Context, rules []model.MonthSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBatch != nil {
		return m.failBatch
	}
	for i := range rules {
		m.seq++
		rules[i].MonthScheduleID = fmt.Sprintf("ms-%03d", m.seq)
		rules[i].CreatedAt = time.Now().UTC()
		cp := rules[i]
		m.rules[cp.MonthScheduleID] = &cp
	}
	return nil
}

func (m *mockMonthScheduleRepo) GetByID(_ context.Context, id string) (*model.MonthSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMonthScheduleRepo) ListByBooking(_ context.Context, bookingID string) ([]model.MonthSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.MonthSchedule
	for _, r := range m.rules {
		if r.BookingID == bookingID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MonthScheduleID < result[j].MonthScheduleID })
	return result, nil
}

func (m *mockMonthScheduleRepo) SetSkipped(_ context.Context, id string, skipped bool, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rules[id]; ok {
		r.IsSkipped = skipped
		r.UpdatedBy = &updatedBy
	}
	return nil
}

// ── Mock Recorder ──

type mockRecorder struct {
	mu        sync.Mutex
	conflicts map[string]int
	mutations map[string]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{conflicts: make(map[string]int), mutations: make(map[string]int)}
}

func (r *mockRecorder) RecordConflict(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts[kind]++
}

func (r *mockRecorder) RecordMutation(kind, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations[kind+"."+op]++
}

func (r *mockRecorder) conflictCount(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflicts[kind]
}
