package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MsgInvalidLogin     = "Invalid username or password."
	MsgUsernameTaken    = "A user with that username already exists."
	MsgPasswordMismatch = "The two password fields didn't match."
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordTooLong  = "This password is too long. It must contain at most 72 bytes."

	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

var ErrInvalidCredentials = errors.New(MsgInvalidLogin)

type UserService struct {
	DB   *gorm.DB
	Feed Publisher
}

func NewUserService(db *gorm.DB, feed Publisher) *UserService {
	return &UserService{DB: db, Feed: feed}
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password1 string
	Password2 string
	Role      models.Role
}

// Register creates a customer account unless another role is given.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	fe := &FormError{}
	if in.Username == "" {
		fe.Add("username", MsgRequired)
	}
	if in.Password1 == "" {
		fe.Add("password1", MsgRequired)
	} else if utf8.RuneCountInString(in.Password1) < minPasswordLength {
		fe.Add("password2", MsgPasswordTooShort)
	} else if len(in.Password1) > maxPasswordBytes {
		fe.Add("password2", MsgPasswordTooLong)
	}
	if in.Password1 != in.Password2 {
		fe.Add("password2", MsgPasswordMismatch)
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		fe.Add("role", MsgInvalidChoice)
	}

	if in.Username != "" {
		var taken int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			fe.Add("username", MsgUsernameTaken)
		}
	}
	if !fe.Empty() {
		return nil, fe
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:  in.Username,
		Email:     strings.TrimSpace(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
		Role:      in.Role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fe.Add("username", MsgUsernameTaken)
			return nil, fe
		}
		return nil, err
	}

	utils.InfoLogger.Printf("User registered: %s (%s)", user.Username, user.Role)
	if s.Feed != nil {
		s.Feed.Publish(feed.EventUserRegistered, map[string]interface{}{"id": user.ID, "username": user.Username})
	}
	return &user, nil
}

// Authenticate checks the credentials. Unknown users and wrong passwords
// fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List feeds the owner picker on the admin booking form.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).Order("username").Find(&users).Error
	return users, err
}
