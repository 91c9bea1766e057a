package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/utils"
)

const minPasswordLength = 6

// UserController handles registration, login and profile endpoints.
type UserController struct {
	db    *gorm.DB
	files *utils.FileStore
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB, files *utils.FileStore) *UserController {
	return &UserController{db: db, files: files}
}

// Register creates a local account with a bcrypt hashed password.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Name      string `json:"name" form:"name" binding:"required,max=64"`
		Email     string `json:"email" form:"email" binding:"required,email,max=255"`
		Password  string `json:"password" form:"password" binding:"required"`
		Password2 string `json:"password2" form:"password2"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Fail(ctx, bindError(err, "Please fill the form completely."))
		return
	}

	name := utils.StripTags(req.Name)
	if name == "" {
		utils.Fail(ctx, utils.ValidationError("Please fill the form completely."))
		return
	}
	email := normalizeEmail(req.Email)

	taken, err := u.emailTaken(email, 0)
	if err != nil {
		utils.Fail(ctx, utils.Unexpected(err))
		return
	}
	if taken {
		utils.Fail(ctx, utils.ValidationError("Email already exists."))
		return
	}

	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		utils.Fail(ctx, utils.ValidationError(fmt.Sprintf("Password should be at least %d characters.", minPasswordLength)))
		return
	}
	if req.Password != req.Password2 {
		utils.Fail(ctx, utils.ValidationError("Passwords do not match."))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("hash password: %w", err)))
		return
	}

	user := models.User{Name: name, Email: email, Password: hash}
	if err := u.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, utils.ValidationError("Email already exists."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("create user: %w", err)))
		return
	}

	utils.Sugar.Infof("registered user id=%d", user.ID)
	utils.Created(ctx, gin.H{
		"message": fmt.Sprintf("New user %s registered.", user.Email),
		"email":   user.Email,
	})
}

// Login verifies credentials and issues a JWT.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" form:"email" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Fail(ctx, bindError(err, "Please fill the form completely."))
		return
	}

	var user models.User
	if err := u.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.ValidationError("Invalid credentials."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("load user: %w", err)))
		return
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		utils.Fail(ctx, utils.ValidationError("Invalid credentials."))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, config.Get().App.TokenTTL)
	if err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("sign token: %w", err)))
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"id":    user.ID,
		"name":  user.Name,
	})
}

// Logout revokes the presented token until it expires.
func (u *UserController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	value, _ := ctx.Get(middleware.ContextTokenClaimsKey)
	claims, ok := value.(*utils.Claims)
	if token == "" || !ok || claims.ExpiresAt == nil {
		utils.Fail(ctx, utils.Unauthorized("Unauthorized. No token."))
		return
	}

	if err := utils.BlacklistToken(ctx.Request.Context(), token, claims.ExpiresAt.Time); err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("blacklist token: %w", err)))
		return
	}
	utils.Success(ctx, gin.H{"message": "Logged out."})
}

// GetUser returns a public profile by id.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("User not found."))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFound("User not found."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("load user: %w", err)))
		return
	}
	utils.Success(ctx, user)
}

// GetAuthors lists every user.
func (u *UserController) GetAuthors(ctx *gin.Context) {
	var users []models.User
	if err := u.db.Order("id ASC").Find(&users).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("list users: %w", err)))
		return
	}
	utils.Success(ctx, users)
}

// ChangeAvatar stores a new profile picture and drops the previous one.
func (u *UserController) ChangeAvatar(ctx *gin.Context) {
	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("avatar")
	if err != nil {
		utils.Fail(ctx, utils.ValidationError("Please choose an image."))
		return
	}

	limit := config.Get().Upload.MaxAvatarBytes
	name, err := u.files.SaveImage(header, limit)
	if err != nil {
		utils.Fail(ctx, uploadError(err, "Profile picture", limit))
		return
	}

	previous := user.Avatar
	if err := u.db.Model(&user).Update("avatar", name).Error; err != nil {
		if rmErr := u.files.Remove(name); rmErr != nil {
			utils.Sugar.Warnf("remove orphaned avatar %s: %v", name, rmErr)
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("update avatar: %w", err)))
		return
	}
	user.Avatar = name
	if err := u.files.Remove(previous); err != nil {
		utils.Sugar.Warnf("remove previous avatar %s: %v", previous, err)
	}

	utils.Success(ctx, user)
}

// EditUser updates name, email and password after checking the current password.
func (u *UserController) EditUser(ctx *gin.Context) {
	var req struct {
		Name               string `json:"name" form:"name" binding:"required,max=64"`
		Email              string `json:"email" form:"email" binding:"required,email,max=255"`
		CurrentPassword    string `json:"currentPassword" form:"currentPassword" binding:"required"`
		NewPassword        string `json:"newPassword" form:"newPassword" binding:"required"`
		ConfirmNewPassword string `json:"confirmNewPassword" form:"confirmNewPassword" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Fail(ctx, bindError(err, msgFillAllFields))
		return
	}

	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}

	name := utils.StripTags(req.Name)
	if name == "" {
		utils.Fail(ctx, utils.ValidationError(msgFillAllFields))
		return
	}
	email := normalizeEmail(req.Email)

	taken, err := u.emailTaken(email, user.ID)
	if err != nil {
		utils.Fail(ctx, utils.Unexpected(err))
		return
	}
	if taken {
		utils.Fail(ctx, utils.ValidationError("Email already exists."))
		return
	}

	if !utils.CheckPassword(user.Password, req.CurrentPassword) {
		utils.Fail(ctx, utils.ValidationError("Invalid current password."))
		return
	}
	if len(strings.TrimSpace(req.NewPassword)) < minPasswordLength {
		utils.Fail(ctx, utils.ValidationError(fmt.Sprintf("Password should be at least %d characters.", minPasswordLength)))
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		utils.Fail(ctx, utils.ValidationError("New passwords do not match."))
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("hash password: %w", err)))
		return
	}

	// posts and avatar have their own writers and are left untouched here
	err = u.db.Model(&user).Select("name", "email", "password").
		Updates(models.User{Name: name, Email: email, Password: hash}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, utils.ValidationError("Email already exists."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("update user: %w", err)))
		return
	}

	if err := u.db.First(&user, user.ID).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("reload user: %w", err)))
		return
	}
	utils.Success(ctx, user)
}

// currentUser loads the authenticated caller, failing the request when it cannot.
func (u *UserController) currentUser(ctx *gin.Context) (models.User, bool) {
	id, ok := callerID(ctx)
	if !ok {
		utils.Fail(ctx, utils.Unauthorized("Unauthorized."))
		return models.User{}, false
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFound("User not found."))
			return models.User{}, false
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("load user: %w", err)))
		return models.User{}, false
	}
	if !models.Owns(user, id) {
		utils.Fail(ctx, utils.Forbidden("You can only change your own profile."))
		return models.User{}, false
	}
	return user, true
}

func (u *UserController) emailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	q := u.db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}
