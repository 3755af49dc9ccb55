package database

import (
	"database/sql"
	"errors"

	"moodtune/pkg/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when registering a duplicate email.
	ErrEmailTaken = errors.New("email already exists")
)

// CreateUser inserts a new user account. The Password field must already
// be hashed by the caller.
func (db *Database) CreateUser(user models.User) error {
	var existing string
	err := db.conn.QueryRow("SELECT id FROM users WHERE username = ?", user.Username).Scan(&existing)
	if err == nil {
		return ErrUsernameTaken
	}
	if err != sql.ErrNoRows {
		return err
	}

	if user.Email != "" {
		err = db.conn.QueryRow("SELECT id FROM users WHERE email = ?", user.Email).Scan(&existing)
		if err == nil {
			return ErrEmailTaken
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	_, err = db.conn.Exec(`
		INSERT INTO users (id, username, email, phone, password)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Username, nullIfEmpty(user.Email), user.Phone, user.Password)
	if err != nil {
		db.logger.WithError(err).WithField("username", user.Username).Error("Failed to create user")
		return err
	}

	db.logger.WithField("username", user.Username).Info("User registered")
	return nil
}

// GetUserByUsername returns the user with the given username.
func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	return db.getUser("SELECT id, username, email, phone, password FROM users WHERE username = ?", username)
}

// GetUserByID returns the user with the given ID.
func (db *Database) GetUserByID(id string) (*models.User, error) {
	return db.getUser("SELECT id, username, email, phone, password FROM users WHERE id = ?", id)
}

func (db *Database) getUser(query, key string) (*models.User, error) {
	var user models.User
	var email, phone sql.NullString

	err := db.conn.QueryRow(query, key).Scan(&user.ID, &user.Username, &email, &phone, &user.Password)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		db.logger.WithError(err).Error("Failed to look up user")
		return nil, err
	}

	user.Email = email.String
	user.Phone = phone.String
	return &user, nil
}

// UpdateUser updates a user's contact details and, when newPassword is
// non-empty, the stored password hash.
func (db *Database) UpdateUser(id, email, phone, newPassword string) error {
	if email != "" {
		var existing string
		err := db.conn.QueryRow("SELECT id FROM users WHERE email = ? AND id != ?", email, id).Scan(&existing)
		if err == nil {
			return ErrEmailTaken
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	var result sql.Result
	var err error
	if newPassword != "" {
		result, err = db.conn.Exec(`
			UPDATE users SET email = ?, phone = ?, password = ? WHERE id = ?`,
			nullIfEmpty(email), phone, newPassword, id)
	} else {
		result, err = db.conn.Exec(`
			UPDATE users SET email = ?, phone = ? WHERE id = ?`,
			nullIfEmpty(email), phone, id)
	}
	if err != nil {
		db.logger.WithError(err).WithField("user_id", id).Error("Failed to update user")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// nullIfEmpty maps "" to NULL so the unique email index ignores users
// without an email address.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
