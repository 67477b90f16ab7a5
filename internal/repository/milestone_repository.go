package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lmeyer/smokefree/internal/model"
)

// MilestoneRepo persists health-milestone snapshots. The table is a durable
// projection of the metrics engine's output, never the source of truth:
// writes are best-effort and readers always recompute from the user record.
type MilestoneRepo struct{ DB *sql.DB }

func NewMilestoneRepo(db *sql.DB) *MilestoneRepo { return &MilestoneRepo{DB: db} }

// UpsertAll writes one row per metric, keyed on (user_id, metric_name).
// last_updated is refreshed on every write; achievement_date is set once a
// metric first reaches its maximum and kept afterwards.
func (r *MilestoneRepo) UpsertAll(ctx context.Context, userID uint64, ms []model.HealthMilestone, now time.Time) error {
	for _, m := range ms {
		var achieved interface{}
		if m.CurrentValue >= m.MaxValue && !m.PermanentDamage {
			achieved = now
		}
		_, err := r.DB.ExecContext(ctx,
			`INSERT INTO health_milestones
				(user_id, metric_name, current_value, max_value, unit, description,
				 is_permanent_damage, expected_recovery, achievement_date,
				 recovery_start_date, last_updated)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE
				current_value=VALUES(current_value),
				description=VALUES(description),
				expected_recovery=VALUES(expected_recovery),
				achievement_date=COALESCE(achievement_date, VALUES(achievement_date)),
				last_updated=VALUES(last_updated)`,
			userID, m.MetricName, m.CurrentValue, m.MaxValue, m.Unit, m.Description,
			m.PermanentDamage, nullStr(m.ExpectedRecovery), achieved,
			m.RecoveryStart, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByUser returns the stored snapshot for a user, newest first.
func (r *MilestoneRepo) ListByUser(ctx context.Context, userID uint64) ([]model.HealthMilestone, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, metric_name, current_value, max_value, unit, description,
			is_permanent_damage, expected_recovery, achievement_date,
			recovery_start_date, last_updated
		 FROM health_milestones WHERE user_id=? ORDER BY last_updated DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HealthMilestone
	for rows.Next() {
		var (
			m        model.HealthMilestone
			desc     sql.NullString
			recovery sql.NullString
			achieved sql.NullTime
			started  sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.MetricName, &m.CurrentValue,
			&m.MaxValue, &m.Unit, &desc, &m.PermanentDamage, &recovery,
			&achieved, &started, &m.LastUpdated); err != nil {
			return nil, err
		}
		m.Description = desc.String
		m.ExpectedRecovery = recovery.String
		if achieved.Valid {
			t := achieved.Time
			m.AchievedAt = &t
		}
		if started.Valid {
			t := started.Time
			m.RecoveryStart = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
