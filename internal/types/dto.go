package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
)

// DateLayout is the wire format of calendar dates (dd.MM.yyyy).
const DateLayout = "02.01.2006"

// Date is a calendar date rendered as dd.MM.yyyy in JSON.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q must use format dd.MM.yyyy", s)
	}
	*d = Date{Time: t}
	return nil
}

// Response is the generic acknowledgement body.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorBody is rendered for every failed request.
type ErrorBody struct {
	Code      int    `json:"code"`
	Key       string `json:"key"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// --- users ---

type UserCreateRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8,max=16" errkey:"USER_PASSWORD_LENGTH_INVALID"`
	FullName    string `json:"fullName" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9,max=13" errkey:"USER_PHONE_LENGTH_INVALID"`
	Role        Role   `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN DEV"`
}

type UserUpdateRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8,max=16" errkey:"USER_PASSWORD_LENGTH_INVALID"`
	FullName    *string `json:"fullName,omitempty" validate:"omitempty,max=255"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,min=9,max=13" errkey:"USER_PHONE_LENGTH_INVALID"`
}

type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        Role   `json:"role"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
	}
}

// --- auth ---

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// --- deceased ---

type DeceasedCreateRequest struct {
	PersonalID string `json:"personalId" validate:"required,len=14,numeric" errkey:"DECEASED_PERSONAL_ID_SIZE_INVALID"`
	FullName   string `json:"fullName" validate:"required,max=255"`
	BirthDate  Date   `json:"birthDate"`
	DeathDate  Date   `json:"deathDate"`
	Biography  string `json:"biography"`
}

type DeceasedUpdateRequest struct {
	PersonalID *string `json:"personalId,omitempty" validate:"omitempty,len=14,numeric" errkey:"DECEASED_PERSONAL_ID_SIZE_INVALID"`
	FullName   *string `json:"fullName,omitempty" validate:"omitempty,max=255"`
	BirthDate  *Date   `json:"birthDate,omitempty"`
	DeathDate  *Date   `json:"deathDate,omitempty"`
	Biography  *string `json:"biography,omitempty"`
}

type DeceasedResponse struct {
	ID         int64  `json:"id"`
	PersonalID string `json:"personalId"`
	FullName   string `json:"fullName"`
	BirthDate  Date   `json:"birthDate"`
	DeathDate  Date   `json:"deathDate"`
	Biography  string `json:"biography"`
}

func NewDeceasedResponse(d *Deceased) DeceasedResponse {
	return DeceasedResponse{
		ID:         d.ID,
		PersonalID: d.PersonalID,
		FullName:   d.FullName,
		BirthDate:  NewDate(d.BirthDate),
		DeathDate:  NewDate(d.DeathDate),
		Biography:  d.Biography,
	}
}

// --- files ---

type FileAssetResponse struct {
	HashID string `json:"hashId"`
}

type FileAssetInfo struct {
	HashID      string       `json:"hashId"`
	Name        string       `json:"name"`
	ContentType string       `json:"contentType"`
	Category    FileCategory `json:"category"`
	Size        int64        `json:"size"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func NewFileAssetInfo(f *FileAsset) FileAssetInfo {
	return FileAssetInfo{
		HashID:      f.HashID,
		Name:        f.Name,
		ContentType: f.ContentType,
		Category:    f.Category,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}

// --- deceased files ---

type DeceasedFileCreateRequest struct {
	DeceasedID int64  `json:"deceasedId" validate:"required,gt=0"`
	HashID     string `json:"hashId" validate:"required"`
	Category   string `json:"category,omitempty"`
}

type DeceasedFileResponse struct {
	ID          int64        `json:"id"`
	DeceasedID  int64        `json:"deceasedId"`
	HashID      string       `json:"hashId"`
	Category    LinkCategory `json:"category"`
	Name        string       `json:"name,omitempty"`
	ContentType string       `json:"contentType,omitempty"`
}

func NewDeceasedFileResponse(v *DeceasedFileView) DeceasedFileResponse {
	return DeceasedFileResponse{
		ID:          v.ID,
		DeceasedID:  v.DeceasedID,
		HashID:      v.HashID,
		Category:    v.Category,
		Name:        v.Name,
		ContentType: v.ContentType,
	}
}

// --- batch ---

type BatchDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type BatchFailure struct {
	ID   int64  `json:"id"`
	Code int    `json:"code"`
	Key  string `json:"key"`
}

// BatchDeleteResponse reports every id of a batch; successes are never
// rolled back by failures.
type BatchDeleteResponse struct {
	Deleted []int64        `json:"deleted"`
	Failed  []BatchFailure `json:"failed"`
}

// NewBatchDeleteResponse folds per-id results; store not-found failures are
// reported as notFound.
func NewBatchDeleteResponse[T any](results []store.Result[T], notFound *Error) BatchDeleteResponse {
	resp := BatchDeleteResponse{Deleted: []int64{}, Failed: []BatchFailure{}}
	for _, res := range results {
		if res.OK() {
			resp.Deleted = append(resp.Deleted, res.ID)
			continue
		}
		failure := BatchFailure{ID: res.ID, Code: 500, Key: "INTERNAL_ERROR"}
		if e, ok := AsError(res.Err); ok {
			failure.Code, failure.Key = e.Code, e.Key
		} else if errors.Is(res.Err, store.ErrNotFound) {
			failure.Code, failure.Key = notFound.Code, notFound.Key
		}
		resp.Failed = append(resp.Failed, failure)
	}
	return resp
}
