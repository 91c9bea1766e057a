package controllers

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/utils"
)

const minDescriptionLength = 12

// PostController manages CRUD operations for posts.
type PostController struct {
	db    *gorm.DB
	files *utils.FileStore
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, files *utils.FileStore) *PostController {
	return &PostController{db: db, files: files}
}

// CreatePost stores the thumbnail, then inserts the post and bumps the author's counter.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title       string `form:"title" binding:"required,max=255"`
		Category    string `form:"category" binding:"required,category"`
		Description string `form:"description" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Fail(ctx, bindError(err, "Fill in all fields and choose thumbnail."))
		return
	}

	userID, ok := callerID(ctx)
	if !ok {
		utils.Fail(ctx, utils.Unauthorized("Unauthorized."))
		return
	}

	title := utils.StripTags(req.Title)
	description := strings.TrimSpace(utils.Sanitize(req.Description))
	if title == "" || description == "" {
		utils.Fail(ctx, utils.ValidationError("Fill in all fields and choose thumbnail."))
		return
	}

	header, err := ctx.FormFile("thumbnail")
	if err != nil {
		utils.Fail(ctx, utils.ValidationError("Fill in all fields and choose thumbnail."))
		return
	}

	limit := config.Get().Upload.MaxThumbnailBytes
	thumbnail, err := p.files.SaveImage(header, limit)
	if err != nil {
		utils.Fail(ctx, uploadError(err, "Thumbnail", limit))
		return
	}

	post := models.Post{
		Title:       title,
		Category:    req.Category,
		Description: description,
		Thumbnail:   thumbnail,
		CreatorID:   userID,
	}
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("posts", gorm.Expr("posts + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment post count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if rmErr := p.files.Remove(thumbnail); rmErr != nil {
			utils.Sugar.Warnf("remove orphaned thumbnail %s: %v", thumbnail, rmErr)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFound("User not found."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(err))
		return
	}

	utils.Sugar.Infof("user id=%d created post id=%d", userID, post.ID)
	utils.Created(ctx, post)
}

// GetPosts lists all posts, most recently updated first.
func (p *PostController) GetPosts(ctx *gin.Context) {
	var posts []models.Post
	if err := p.db.Preload("Creator").Order("updated_at DESC, id DESC").Find(&posts).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("list posts: %w", err)))
		return
	}
	utils.Success(ctx, posts)
}

// GetPost returns a single post with its author.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, post)
}

// GetCatPosts lists posts of one category, newest first.
func (p *PostController) GetCatPosts(ctx *gin.Context) {
	category := ctx.Param("category")
	var posts []models.Post
	if err := p.db.Preload("Creator").Where("category = ?", category).
		Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("list category posts: %w", err)))
		return
	}
	utils.Success(ctx, posts)
}

// GetUserPosts lists the posts written by one user, newest first.
func (p *PostController) GetUserPosts(ctx *gin.Context) {
	userID, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("User not found."))
		return
	}

	var posts []models.Post
	if err := p.db.Preload("Creator").Where("creator_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("list user posts: %w", err)))
		return
	}
	utils.Success(ctx, posts)
}

// EditPost updates a post owned by the caller, optionally replacing its thumbnail.
func (p *PostController) EditPost(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" form:"title" binding:"required,max=255"`
		Category    string `json:"category" form:"category" binding:"required,category"`
		Description string `json:"description" form:"description" binding:"required,min=12"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Fail(ctx, bindError(err, msgFillAllFields))
		return
	}

	userID, ok := callerID(ctx)
	if !ok {
		utils.Fail(ctx, utils.Unauthorized("Unauthorized."))
		return
	}

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !models.Owns(post, userID) {
		utils.Fail(ctx, utils.Forbidden("You can only edit your own posts."))
		return
	}

	title := utils.StripTags(req.Title)
	description := strings.TrimSpace(utils.Sanitize(req.Description))
	if title == "" || description == "" {
		utils.Fail(ctx, utils.ValidationError(msgFillAllFields))
		return
	}
	if utf8.RuneCountInString(description) < minDescriptionLength {
		utils.Fail(ctx, utils.ValidationError(fmt.Sprintf("Description should be at least %d characters.", minDescriptionLength)))
		return
	}

	updates := map[string]interface{}{
		"title":       title,
		"category":    req.Category,
		"description": description,
	}

	var thumbnail string
	if header, err := ctx.FormFile("thumbnail"); err == nil {
		limit := config.Get().Upload.MaxThumbnailBytes
		thumbnail, err = p.files.SaveImage(header, limit)
		if err != nil {
			utils.Fail(ctx, uploadError(err, "Thumbnail", limit))
			return
		}
		updates["thumbnail"] = thumbnail
	}

	res := p.db.Model(&models.Post{}).
		Where("id = ? AND creator_id = ?", post.ID, userID).
		Updates(updates)
	if res.Error != nil || res.RowsAffected == 0 {
		if rmErr := p.files.Remove(thumbnail); rmErr != nil {
			utils.Sugar.Warnf("remove orphaned thumbnail %s: %v", thumbnail, rmErr)
		}
		if res.Error != nil {
			utils.Fail(ctx, utils.Unexpected(fmt.Errorf("update post: %w", res.Error)))
			return
		}
		utils.Fail(ctx, utils.NotFound("Post not found."))
		return
	}

	if thumbnail != "" && post.Thumbnail != thumbnail {
		if err := p.files.Remove(post.Thumbnail); err != nil {
			utils.Sugar.Warnf("remove previous thumbnail %s: %v", post.Thumbnail, err)
		}
	}

	var updated models.Post
	if err := p.db.Preload("Creator").First(&updated, post.ID).Error; err != nil {
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("reload post: %w", err)))
		return
	}
	utils.Success(ctx, updated)
}

// DeletePost removes a post owned by the caller and its thumbnail.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		utils.Fail(ctx, utils.Unauthorized("Unauthorized."))
		return
	}

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !models.Owns(post, userID) {
		utils.Fail(ctx, utils.Forbidden("You can only delete your own posts."))
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND creator_id = ?", post.ID, userID).Delete(&models.Post{})
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&models.User{}).
			Where("id = ? AND posts > 0", userID).
			UpdateColumn("posts", gorm.Expr("posts - ?", 1)).Error; err != nil {
			return fmt.Errorf("decrement post count: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFound("Post not found."))
			return
		}
		utils.Fail(ctx, utils.Unexpected(err))
		return
	}

	if err := p.files.Remove(post.Thumbnail); err != nil {
		utils.Sugar.Warnf("remove thumbnail %s of deleted post %d: %v", post.Thumbnail, post.ID, err)
	}

	utils.Sugar.Infof("user id=%d deleted post id=%d", userID, post.ID)
	utils.Success(ctx, gin.H{"message": fmt.Sprintf("Post %d deleted successfully.", post.ID)})
}

func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("Post not found."))
		return models.Post{}, false
	}

	var post models.Post
	if err := p.db.Preload("Creator").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFound("Post not found."))
			return models.Post{}, false
		}
		utils.Fail(ctx, utils.Unexpected(fmt.Errorf("load post: %w", err)))
		return models.Post{}, false
	}
	return post, true
}
