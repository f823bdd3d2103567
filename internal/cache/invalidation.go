package cache

import (
	"context"

	"github.com/ikkim/campus-backend/pkg/logger"
)

type MutationKind string

const (
	CourseChanged     MutationKind = "course_changed"
	CourseDeleted     MutationKind = "course_deleted"
	VideoChanged      MutationKind = "video_changed"
	EnrollmentChanged MutationKind = "enrollment_changed"
	ArticleChanged    MutationKind = "article_changed"
	CommentChanged    MutationKind = "comment_changed"
	BookChanged       MutationKind = "book_changed"
	OrderChanged      MutationKind = "order_changed"
	PaymentVerified   MutationKind = "payment_verified"
	UserChanged       MutationKind = "user_changed"
	ChatRoomChanged   MutationKind = "chat_room_changed"
	MessageCreated    MutationKind = "message_created"
	ShortLinkChanged  MutationKind = "shortlink_changed"
	BlocklistChanged  MutationKind = "blocklist_changed"
)

// Mutation describes a committed write. UserIDs must list every user whose
// per-user view is affected, e.g. all enrolled students when a course goes away.
type Mutation struct {
	Kind     MutationKind
	UserIDs  []uint
	CourseID uint
	RoomID   uint
	Code     string
}

// Plan is the set of exact keys and glob patterns a mutation invalidates.
type Plan struct {
	Keys     []string
	Patterns []string
}

// PlanFor is the single map from mutation kind to cache keys.
func PlanFor(m Mutation) Plan {
	var p Plan
	perUser := func(fns ...func(uint) string) {
		for _, uid := range m.UserIDs {
			for _, fn := range fns {
				p.Keys = append(p.Keys, fn(uid))
			}
		}
	}

	switch m.Kind {
	case CourseChanged:
		p.Keys = append(p.Keys, KeyCoursesAll, KeyReportProductSales, KeyReportTopTeachers)
		perUser(KeyStudentCourses, KeyUserEnrollments)
	case CourseDeleted:
		p.Keys = append(p.Keys, KeyCoursesAll, KeyReportProductSales, KeyReportTopTeachers)
		perUser(KeyStudentCourses, KeyUserEnrollments)
		p.Patterns = append(p.Patterns, PatternCourseVideos(m.CourseID))
	case VideoChanged:
		p.Patterns = append(p.Patterns, PatternCourseVideos(m.CourseID))
	case EnrollmentChanged:
		p.Keys = append(p.Keys, KeyReportProductSales)
		perUser(KeyStudentCourses, KeyUserEnrollments)
		for _, uid := range m.UserIDs {
			p.Keys = append(p.Keys, KeyCourseVideos(m.CourseID, uid))
		}
	case ArticleChanged:
		p.Keys = append(p.Keys, KeyArticlesPublished)
		perUser(KeyUserArticles)
	case CommentChanged:
		p.Keys = append(p.Keys, KeyCommentsPublic)
		perUser(KeyUserComments)
	case BookChanged:
		p.Keys = append(p.Keys, KeyBooksInStock, KeyReportProductSales)
	case OrderChanged:
		p.Keys = append(p.Keys, KeyReportOrderStatus, KeyReportProductSales)
		perUser(KeyUserOrders)
	case PaymentVerified:
		p.Keys = append(p.Keys, KeyReportSales, KeyReportTopTeachers, KeyReportPaymentTime)
		p.Patterns = append(p.Patterns, PatternReportChart)
	case UserChanged:
		p.Keys = append(p.Keys, KeyReportUserStats, KeyReportNewUsers, KeyReportDAU)
	case ChatRoomChanged:
		perUser(KeyChatRooms)
		p.Patterns = append(p.Patterns, PatternChatRoomLists)
		if m.RoomID != 0 {
			p.Patterns = append(p.Patterns, PatternRoomMessages(m.RoomID))
		}
	case MessageCreated:
		p.Patterns = append(p.Patterns, PatternRoomMessages(m.RoomID))
	case ShortLinkChanged:
		p.Keys = append(p.Keys, KeyShortLinkStats(m.Code))
	case BlocklistChanged:
		p.Keys = append(p.Keys, KeyBlocklist)
	}
	return p
}

// Invalidator applies plans against a store after the owning write commits.
type Invalidator struct {
	store Store
}

func NewInvalidator(store Store) *Invalidator {
	return &Invalidator{store: store}
}

func (i *Invalidator) Store() Store {
	return i.store
}

// Apply never fails the caller; a stale entry expires with its TTL.
func (i *Invalidator) Apply(ctx context.Context, mutations ...Mutation) {
	for _, m := range mutations {
		plan := PlanFor(m)
		if err := i.store.Delete(ctx, plan.Keys...); err != nil {
			logger.Warn("Cache invalidation failed", map[string]interface{}{
				"kind":  m.Kind,
				"keys":  plan.Keys,
				"error": err.Error(),
			})
		}
		for _, pattern := range plan.Patterns {
			if err := i.store.DeletePattern(ctx, pattern); err != nil {
				logger.Warn("Cache pattern invalidation failed", map[string]interface{}{
					"kind":    m.Kind,
					"pattern": pattern,
					"error":   err.Error(),
				})
			}
		}
		logger.Debug("Cache invalidated", map[string]interface{}{
			"kind":     m.Kind,
			"keys":     len(plan.Keys),
			"patterns": len(plan.Patterns),
		})
	}
}
