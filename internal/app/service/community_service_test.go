package service

import (
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostTags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tab     model.FeedTab
		extra   []string
		want    []string
	}{
		{name: "hashtags", content: "Loving #Coffee and #coffee at #Base", want: []string{"coffee", "base"}},
		{name: "local tab", content: "Friday meetup and event!", tab: model.FeedTabLocal, want: []string{"local", "event", "meetup"}},
		{name: "local tab dedupes hashtag", content: "See you #local", tab: model.FeedTabLocal, want: []string{"local"}},
		{name: "extra tags", content: "hello", extra: []string{"#Food", "food", " "}, want: []string{"food"}},
		{name: "feed tab no auto tags", content: "a local event", tab: model.FeedTabFeed, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPostTags(tt.content, tt.tab, tt.extra))
		})
	}
}

func TestFilterPosts(t *testing.T) {
	business := "cafe-one"
	now := time.Now()
	posts := []model.CommunityPost{
		{ID: "p1", CreatedAt: now, Content: "plain update", Likes: 0},
		{ID: "p2", CreatedAt: now.Add(-time.Minute), Content: "hi @cafe-one", BusinessID: &business, Likes: 2},
		{ID: "p3", CreatedAt: now.Add(-2 * time.Minute), Content: "art show", Tags: []string{"event"}, Likes: 5, Comments: 3},
		{ID: "p4", CreatedAt: now.Add(-3 * time.Minute), Content: "Meetup tonight", Comments: 1},
	}

	ids := func(ps []model.CommunityPost) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		tab     model.FeedTab
		want    []string
		wantErr error
	}{
		{tab: model.FeedTabFeed, want: []string{"p1", "p2", "p3", "p4"}},
		{tab: "", want: []string{"p1", "p2", "p3", "p4"}},
		{tab: model.FeedTabTrending, want: []string{"p3", "p2", "p4"}},
		{tab: model.FeedTabLocal, want: []string{"p2", "p3", "p4"}},
		{tab: "popular", wantErr: ErrInvalidTab},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			got, err := FilterPosts(posts, tt.tab)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCommunityService_AddCommunityPost(t *testing.T) {
	env := setupTestEnv(t)
	env.addBusiness(t, "cafe-one", "Cafe One", model.CategoryFood)
	svc := NewCommunityService(env.posts, env.business, env.events)

	t.Run("known mention links business", func(t *testing.T) {
		post, err := svc.AddCommunityPost(buyerWallet, model.CreatePostRequest{Content: "Great latte at @cafe-one #coffee"})
		require.NoError(t, err)
		require.NotNil(t, post.BusinessID)
		assert.Equal(t, "cafe-one", *post.BusinessID)
		assert.Equal(t, "Cafe One", post.BusinessName)
		assert.Equal(t, []string{"coffee"}, post.Tags)
		assert.Equal(t, "0x0000...00bb", post.AuthorName)
	})

	t.Run("unknown mention stays unlinked", func(t *testing.T) {
		post, err := svc.AddCommunityPost(buyerWallet, model.CreatePostRequest{Content: "Anyone tried @nowhere?"})
		require.NoError(t, err)
		assert.Nil(t, post.BusinessID)
	})

	t.Run("blank content", func(t *testing.T) {
		_, err := svc.AddCommunityPost(buyerWallet, model.CreatePostRequest{Content: "   "})
		assert.ErrorIs(t, err, ErrEmptyPost)
	})

	assert.Contains(t, env.events.types(), EventPostCreated)
}

func TestCommunityService_LikesAndComments(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCommunityService(env.posts, env.business, nil)

	post, err := svc.AddCommunityPost(ownerWallet, model.CreatePostRequest{Content: "Opening day!"})
	require.NoError(t, err)

	liked, err := svc.TogglePostLike(post.ID, buyerWallet)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, int64(1), liked.Likes)

	posts, err := svc.GetCommunityPosts(model.FeedTabFeed, buyerWallet)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].Liked)

	ids, err := svc.GetUserLikedPostIDs(buyerWallet)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, ids)

	unliked, err := svc.TogglePostLike(post.ID, buyerWallet)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Equal(t, int64(0), unliked.Likes)

	_, err = svc.TogglePostLike("missing", buyerWallet)
	assert.ErrorIs(t, err, ErrPostNotFound)

	comment, err := svc.AddComment(post.ID, buyerWallet, model.CreateCommentRequest{Content: "Congrats"})
	require.NoError(t, err)
	assert.Equal(t, "0x0000...00bb", comment.AuthorName)

	comments, err := svc.GetComments(post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	stored, err := env.posts.FindPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Comments)

	_, err = svc.AddComment("missing", buyerWallet, model.CreateCommentRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.GetComments("missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}
