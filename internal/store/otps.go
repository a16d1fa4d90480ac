package store

import (
	"bitwise74/otp-api/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// OTPs is the one-time code store. Every delete is by predicate so
// concurrent callers deleting the same rows never fail.
type OTPs struct {
	db *gorm.DB
}

func (o *OTPs) Create(ctx context.Context, e *model.OTP) error {
	return wrap(o.db.WithContext(ctx).Create(e).Error)
}

// Replace deletes every code for e.Email and inserts e in one transaction, so
// sequential callers always leave exactly one row behind
func (o *OTPs) Replace(ctx context.Context, e *model.OTP) error {
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", e.Email).Delete(&model.OTP{}).Error; err != nil {
			return err
		}

		return tx.Create(e).Error
	})

	return wrap(err)
}

// Find returns every row matching the (email, code) pair, expired or not
func (o *OTPs) Find(ctx context.Context, email, code string) ([]model.OTP, error) {
	var entries []model.OTP

	err := o.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Find(&entries).
		Error
	if err != nil {
		return nil, wrap(err)
	}

	return entries, nil
}

func (o *OTPs) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	r := o.db.WithContext(ctx).Where("email = ?", email).Delete(&model.OTP{})
	return r.RowsAffected, wrap(r.Error)
}

// DeleteExpired removes every code whose expiry is at or before now, plus
// every code whose expiry can't be read. Those never validate, so they count
// as expired.
func (o *OTPs) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r := o.db.WithContext(ctx).
		Where("expires_at <= ?", model.NewTimestamp(now)).
		Delete(&model.OTP{})
	if r.Error != nil {
		return 0, wrap(r.Error)
	}

	n, err := o.deleteUnreadable(ctx)
	return r.RowsAffected + n, err
}

// deleteUnreadable drops rows whose expires_at doesn't parse. Text ordering
// can't catch them, so the remaining rows are scanned and removed by id.
func (o *OTPs) deleteUnreadable(ctx context.Context) (int64, error) {
	var rows []model.OTP

	err := o.db.WithContext(ctx).
		Select("id", "expires_at").
		Find(&rows).
		Error
	if err != nil {
		return 0, wrap(err)
	}

	var ids []uint
	for _, row := range rows {
		if !row.ExpiresAt.Valid {
			ids = append(ids, row.ID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	r := o.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.OTP{})
	return r.RowsAffected, wrap(r.Error)
}
