package repository

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lmeyer/smokefree/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, username, password_hash, profile_image, quit_date,
	cigarettes_per_day, price_per_pack, cigarettes_per_pack,
	age, smoking_years, preexisting_conditions, body_weight, sport_activity,
	created_at, updated_at`

// Create hashes the password and inserts the user, returning the new ID.
// The unique index on email is the authoritative duplicate guard; a 1062
// from the driver is mapped to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, profile_image, quit_date,
			cigarettes_per_day, price_per_pack, cigarettes_per_pack,
			age, smoking_years, preexisting_conditions, body_weight, sport_activity)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		email, u.Username, string(hash), u.ProfileImage, u.QuitDate,
		u.CigarettesPerDay, u.PricePerPack, u.CigarettesPerPack,
		u.Age, u.SmokingYears, u.Preexisting, u.BodyWeight, u.SportActivity)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByEmail is a fast-path duplicate check before insert; the unique
// index still decides under races.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByUsername fetches a user by username. Usernames are not globally
// unique; the first match wins, which is why email lookup takes precedence
// in the resolver.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// UpdateProfile overwrites the profile field set in one UPDATE statement,
// so concurrent updates to the same record are last-write-wins. It returns
// the refreshed record.
func (r *UserRepo) UpdateProfile(ctx context.Context, username string, p model.ProfileUpdate) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET profile_image=?, quit_date=?, cigarettes_per_day=?,
			price_per_pack=?, cigarettes_per_pack=?, age=?, smoking_years=?,
			preexisting_conditions=?, body_weight=?, sport_activity=?
		 WHERE username=?`,
		p.ProfileImage, p.QuitDate, p.CigarettesPerDay,
		p.PricePerPack, p.CigarettesPerPack, p.Age, p.SmokingYears,
		p.Preexisting, p.BodyWeight, p.SportActivity,
		username)
	if err != nil {
		return model.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op write, so
		// confirm existence before reporting not found.
		if _, err := r.GetByUsername(ctx, username); err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		} else if err != nil {
			return model.User{}, err
		}
	}
	return r.GetByUsername(ctx, username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var (
		u            model.User
		profileImage sql.NullString
		quitDate     sql.NullTime
		age          sql.NullInt64
		preexisting  sql.NullString
		bodyWeight   sql.NullFloat64
		sport        sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &profileImage, &quitDate,
		&u.CigarettesPerDay, &u.PricePerPack, &u.CigarettesPerPack,
		&age, &u.SmokingYears, &preexisting, &bodyWeight, &sport,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if profileImage.Valid {
		u.ProfileImage = &profileImage.String
	}
	if quitDate.Valid {
		t := quitDate.Time
		u.QuitDate = &t
	}
	if age.Valid {
		n := int(age.Int64)
		u.Age = &n
	}
	if preexisting.Valid {
		u.Preexisting = &preexisting.String
	}
	if bodyWeight.Valid {
		u.BodyWeight = &bodyWeight.Float64
	}
	if sport.Valid {
		u.SportActivity = &sport.String
	}
	return u, nil
}
