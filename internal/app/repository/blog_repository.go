package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type ArticleRepository interface {
	Create(article *model.Article) error
	FindByID(id uint) (*model.Article, error)
	FindByIDAndOwner(id, ownerID uint) (*model.Article, error)
	FindPublished() ([]model.Article, error)
	FindByOwner(ownerID uint) ([]model.Article, error)
	FindAll() ([]model.Article, error)
	ExistsByOwnerAndTitle(ownerID uint, title string, excludeID uint) (bool, error)
	Update(article *model.Article) error
	// Delete removes the article and its comments and returns the distinct
	// authors of those comments.
	Delete(id uint) ([]uint, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(article *model.Article) error {
	logger.Debug("Creating article in database", map[string]interface{}{
		"owner_id": article.OwnerID,
		"title":    article.Title,
	})

	if err := r.db.Omit("Owner").Create(article).Error; err != nil {
		logger.Error("Failed to create article in database", err, map[string]interface{}{
			"owner_id": article.OwnerID,
		})
		return err
	}

	logger.Debug("Article created in database", map[string]interface{}{
		"article_id": article.ID,
	})
	return nil
}

func (r *articleRepository) FindByID(id uint) (*model.Article, error) {
	var article model.Article
	if err := r.db.First(&article, id).Error; err != nil {
		logger.Error("Failed to find article", err, map[string]interface{}{
			"article_id": id,
		})
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindByIDAndOwner(id, ownerID uint) (*model.Article, error) {
	var article model.Article
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindPublished() ([]model.Article, error) {
	var articles []model.Article
	if err := r.db.Where("is_published = ?", true).Order("created_at DESC").Find(&articles).Error; err != nil {
		logger.Error("Failed to list published articles", err)
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) FindByOwner(ownerID uint) ([]model.Article, error) {
	var articles []model.Article
	if err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&articles).Error; err != nil {
		logger.Error("Failed to list user articles", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) FindAll() ([]model.Article, error) {
	var articles []model.Article
	err := r.db.Order("id").Find(&articles).Error
	return articles, err
}

func (r *articleRepository) ExistsByOwnerAndTitle(ownerID uint, title string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&model.Article{}).Where("owner_id = ? AND title = ?", ownerID, title)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *articleRepository) Update(article *model.Article) error {
	if err := r.db.Omit("Owner").Save(article).Error; err != nil {
		logger.Error("Failed to update article", err, map[string]interface{}{
			"article_id": article.ID,
		})
		return err
	}
	return nil
}

func (r *articleRepository) Delete(id uint) ([]uint, error) {
	logger.Debug("Deleting article from database", map[string]interface{}{
		"article_id": id,
	})

	var commenters []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Comment{}).Where("article_id = ?", id).
			Distinct().Pluck("author_id", &commenters).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Article{}, id).Error
	})
	if err != nil {
		logger.Error("Failed to delete article", err, map[string]interface{}{
			"article_id": id,
		})
		return nil, err
	}
	return commenters, nil
}

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(id uint) (*model.Comment, error)
	FindByIDAndAuthor(id, authorID uint) (*model.Comment, error)
	FindByAuthor(authorID uint) ([]model.Comment, error)
	FindPublic() ([]model.Comment, error)
	FindAll() ([]model.Comment, error)
	Update(comment *model.Comment) error
	Delete(id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *model.Comment) error {
	logger.Debug("Creating comment in database", map[string]interface{}{
		"author_id":  comment.AuthorID,
		"article_id": comment.ArticleID,
	})

	if err := r.db.Omit("Author", "Article").Create(comment).Error; err != nil {
		logger.Error("Failed to create comment in database", err, map[string]interface{}{
			"author_id":  comment.AuthorID,
			"article_id": comment.ArticleID,
		})
		return err
	}
	return nil
}

func (r *commentRepository) FindByID(id uint) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByIDAndAuthor(id, authorID uint) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.Where("id = ? AND author_id = ?", id, authorID).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByAuthor(authorID uint) ([]model.Comment, error) {
	var comments []model.Comment
	if err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Find(&comments).Error; err != nil {
		logger.Error("Failed to list user comments", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) FindPublic() ([]model.Comment, error) {
	var comments []model.Comment
	if err := r.db.Where("is_public = ?", true).Order("created_at DESC").Find(&comments).Error; err != nil {
		logger.Error("Failed to list public comments", err)
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) FindAll() ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.Order("id").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Update(comment *model.Comment) error {
	if err := r.db.Omit("Author", "Article").Save(comment).Error; err != nil {
		logger.Error("Failed to update comment", err, map[string]interface{}{
			"comment_id": comment.ID,
		})
		return err
	}
	return nil
}

func (r *commentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Comment{}, id).Error
}
