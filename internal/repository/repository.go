package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User          UserRepository
	Service       ServiceRepository
	Booking       BookingRepository
	Availability  AvailabilityRepository
	Schedule      ScheduleRepository
	MonthSchedule MonthScheduleRepository
	Tx            TxManager
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return newRepository(db, &gormTxManager{db: db})
}

// newRepository 以给定连接（可能是事务）构造聚合
func newRepository(db *gorm.DB, tx TxManager) *Repository {
	return &Repository{
		User:          NewUserRepo(db),
		Service:       NewServiceRepo(db),
		Booking:       NewBookingRepo(db),
		Availability:  NewAvailabilityRepo(db),
		Schedule:      NewScheduleRepo(db),
		MonthSchedule: NewMonthScheduleRepo(db),
		Tx:            tx,
	}
}
