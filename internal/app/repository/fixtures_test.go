package repository

import (
	"fmt"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

var phoneSeq = 100000000

func createUser(t *testing.T, testDB *gorm.DB, username string, role model.UserRole) *model.User {
	phoneSeq++
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Phone:        fmt.Sprintf("09%09d", phoneSeq),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createBook(t *testing.T, testDB *gorm.DB, name, price string, stock int) *model.Book {
	book := &model.Book{Name: name, Price: model.MustMoney(price), Stock: stock}
	require.NoError(t, testDB.Create(book).Error)
	return book
}

func createCourse(t *testing.T, testDB *gorm.DB, teacherID uint, name string, price int64) *model.Course {
	course := &model.Course{Name: name, TeacherID: teacherID, Price: price, IsFree: price == 0}
	require.NoError(t, testDB.Omit("Teacher").Create(course).Error)
	return course
}
