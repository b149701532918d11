package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sahiljoharle/Bucks-And-Balance/models"
)

// listCategories returns every category visible to userID: the user's own
// plus the shared defaults, defaults first, then alphabetically.
func listCategories(userID uint) ([]models.Category, error) {
	var cats []models.Category
	err := db.Where("user_id = ? OR is_default = ?", userID, true).
		Order("is_default DESC, name ASC").
		Find(&cats).Error
	return cats, err
}

// createCategory inserts a non-default category owned by userID.
func createCategory(userID uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errNameRequired
	}
	uid := userID
	cat := models.Category{UserID: &uid, Name: name}
	if err := db.Create(&cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, errConflict
		}
		return nil, err
	}
	return &cat, nil
}

// renameCategory renames a category the user owns. Missing rows, rows owned
// by someone else and default categories all come back as errNotFound.
func renameCategory(userID, categoryID uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errNameRequired
	}
	var cat models.Category
	err := db.Where("id = ? AND user_id = ? AND is_default = ?", categoryID, userID, false).
		First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := db.Model(&cat).Update("name", name).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, errConflict
		}
		return nil, err
	}
	return &cat, nil
}

// removeCategory deletes a category the user owns, refusing while any expense
// still references it. The ownership check runs before the in-use check so a
// user cannot probe whether somebody else's category id is in use.
func removeCategory(userID, categoryID uint) error {
	var cat models.Category
	err := db.Where("id = ? AND user_id = ? AND is_default = ?", categoryID, userID, false).
		First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound
		}
		return err
	}
	var refs int64
	if err := db.Model(&models.Expense{}).Where("category_id = ?", categoryID).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return errInUse
	}
	return db.Delete(&cat).Error
}

func listCategoriesHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cats, err := listCategories(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cats)
}

func createCategoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat, err := createCategory(userID, req.Name)
	switch {
	case errors.Is(err, errNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": errNameRequired.Error()})
	case errors.Is(err, errConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "category name already exists"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, cat)
	}
}

func updateCategoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found or not editable"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat, err := renameCategory(userID, id, req.Name)
	switch {
	case errors.Is(err, errNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": errNameRequired.Error()})
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found or not editable"})
	case errors.Is(err, errConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "category name already exists"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, cat)
	}
}

func deleteCategoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found or not deletable"})
		return
	}
	err = removeCategory(userID, id)
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found or not deletable"})
	case errors.Is(err, errInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInUse.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
	}
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
