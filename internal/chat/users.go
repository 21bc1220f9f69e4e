package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/types"
)

// Employee status tiers. Manager and above hold admin privileges: they may
// create rooms and manage other accounts.
const (
	StatusStaff   = 0
	StatusSenior  = 1
	StatusManager = 2
	StatusExec    = 3
)

// maxAssignableStatus caps what an admin may assign through the status update
// action. StatusExec is seed-only.
const maxAssignableStatus = StatusManager

var employeeIdPattern = regexp.MustCompile(`^[a-z]{2}[0-9]{6}$`)

type RegisterParams struct {
	Name       string `json:"name" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	EmployeeId string `json:"employee_id" validate:"required,employee_id"`
}

type UserService struct {
	log      *log.Logger
	db       database.WorkChatRepository
	validate *validator.Validate
	cascade  *Cascade
}

func NewUserService(logger *log.Logger, db database.WorkChatRepository) *UserService {
	v := validator.New()
	// two lowercase letters followed by exactly six digits, e.g. "ee123456"
	v.RegisterValidation("employee_id", func(fl validator.FieldLevel) bool {
		return employeeIdPattern.MatchString(fl.Field().String())
	})

	return &UserService{
		log:      logger,
		db:       db,
		validate: v,
		cascade:  NewCascade(logger, db),
	}
}

// Register validates the candidate user and creates exactly one user row on
// success. Any validation or store failure creates nothing.
func (s *UserService) Register(params RegisterParams) (types.User, error) {
	if err := s.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return types.User{}, &ValidationError{
				Field:  strings.ToLower(fe.Field()),
				Reason: fmt.Sprintf("failed %q check", fe.Tag()),
			}
		}
		return types.User{}, err
	}

	u, err := s.db.CreateUser(database.CreateUserParams{
		Name:           params.Name,
		Password:       params.Password,
		Email:          params.Email,
		EmployeeId:     params.EmployeeId,
		EmployeeStatus: StatusStaff,
	})
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	return toApiUser(u), nil
}

// IsAdmin reports whether the user's employee status sits in an admin tier.
// A missing user, a store failure or an invalid id all classify as non-admin.
func (s *UserService) IsAdmin(userId int) bool {
	if userId <= 0 {
		return false
	}

	u, err := s.db.GetUserById(userId)
	if err != nil {
		return false
	}

	return u.EmployeeStatus >= StatusManager
}

// Update dispatches one account mutation intent. A rejected intent performs
// zero store mutations; an accepted one performs exactly one.
func (s *UserService) Update(userId int, intent UpdateIntent) error {
	switch in := intent.(type) {
	case RenameIntent:
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return &ValidationError{Field: "name", Reason: "must not be blank"}
		}
		return s.db.UpdateUserName(userId, name)
	case ChangePasswordIntent:
		password := strings.TrimSpace(in.Password)
		confirm := strings.TrimSpace(in.Confirm)
		if password == "" || confirm == "" {
			return &ValidationError{Field: "password", Reason: "must not be blank"}
		}
		if password != confirm {
			return &ValidationError{Field: "password", Reason: "confirmation does not match"}
		}
		return s.db.UpdateUserPassword(userId, password)
	case ChangeStatusIntent:
		status, err := strconv.Atoi(strings.TrimSpace(in.Status))
		if err != nil {
			return &ValidationError{Field: "employee_status", Reason: "must be an integer"}
		}
		if status < StatusStaff || status > maxAssignableStatus {
			return &ValidationError{Field: "employee_status", Reason: "out of range"}
		}
		return s.db.UpdateUserStatus(userId, status)
	default:
		return fmt.Errorf("unknown update intent %T", intent)
	}
}

// Delete removes the user and their memberships. Messages they authored are
// retained.
func (s *UserService) Delete(userId int) error {
	return s.cascade.DeleteUser(userId)
}

// Authenticate resolves a user by email and compares the stored password.
func (s *UserService) Authenticate(email, password string) (types.User, error) {
	u, err := s.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("get user by email: %w", err)
	}

	if u.Password != password {
		return types.User{}, &AuthorizationError{Reason: "wrong password"}
	}

	return toApiUser(u), nil
}

func (s *UserService) Get(userId int) (types.User, error) {
	u, err := s.db.GetUserById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("get user: %w", err)
	}

	return toApiUser(u), nil
}

func (s *UserService) List() ([]types.User, error) {
	dbUsers, err := s.db.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var users []types.User
	for _, u := range dbUsers {
		users = append(users, toApiUser(u))
	}
	return users, nil
}

func toApiUser(u database.User) types.User {
	return types.User{
		Id:             u.Id,
		Name:           u.Name,
		Password:       u.Password,
		Email:          u.Email,
		EmployeeId:     u.EmployeeId,
		EmployeeStatus: u.EmployeeStatus,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
