package repository

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCommunityRepository_ListPosts(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCommunityRepository(testDB)

	older := &model.CommunityPost{AuthorAddress: userB, Content: "first", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &model.CommunityPost{AuthorAddress: userC, Content: "second", Tags: []string{"local"}}
	require.NoError(t, repo.CreatePost(older))
	require.NoError(t, repo.CreatePost(newer))

	posts, err := repo.ListPosts()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, []string{"local"}, posts[0].Tags)
}

func TestCommunityRepository_ToggleLike(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCommunityRepository(testDB)

	post := &model.CommunityPost{AuthorAddress: userB, Content: "hello", Likes: 12}
	require.NoError(t, repo.CreatePost(post))

	res, err := repo.ToggleLike(post.ID, userC)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(13), res.Likes)

	res, err = repo.ToggleLike(post.ID, userC)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(12), res.Likes)

	res, err = repo.ToggleLike(post.ID, ownerA)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(13), res.Likes)

	liked, err := repo.LikedPostIDs(ownerA)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, liked)

	liked, err = repo.LikedPostIDs(userC)
	require.NoError(t, err)
	assert.Empty(t, liked)

	_, err = repo.ToggleLike("missing", userC)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCommunityRepository_Comments(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCommunityRepository(testDB)

	post := &model.CommunityPost{AuthorAddress: userB, Content: "hello"}
	require.NoError(t, repo.CreatePost(post))

	first := &model.PostComment{PostID: post.ID, AuthorAddress: userC, Content: "nice", CreatedAt: time.Now().Add(-time.Minute)}
	second := &model.PostComment{PostID: post.ID, AuthorAddress: ownerA, Content: "agreed"}
	require.NoError(t, repo.CreateComment(first))
	require.NoError(t, repo.CreateComment(second))

	comments, err := repo.ListComments(post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)

	stored, err := repo.FindPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Comments)

	err = repo.CreateComment(&model.PostComment{PostID: "missing", AuthorAddress: userC, Content: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
