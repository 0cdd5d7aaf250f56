package serializers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kirill-Khudyakov/shotline/geocoder"
	"github.com/Kirill-Khudyakov/shotline/models"
	"github.com/Kirill-Khudyakov/shotline/store"
)

// stubGeocoder answers from fixed maps, or fails when broken is set.
type stubGeocoder struct {
	forward map[string]geocoder.Coordinates
	reverse map[string]string
	broken  bool
}

func (g *stubGeocoder) Geocode(_ context.Context, name string) (*geocoder.Coordinates, error) {
	if g.broken {
		return nil, errors.New("service unavailable")
	}
	if c, ok := g.forward[name]; ok {
		return &c, nil
	}
	return nil, nil
}

func (g *stubGeocoder) Reverse(_ context.Context, lat, lon float64) (string, error) {
	if g.broken {
		return "", errors.New("service unavailable")
	}
	return g.reverse[fmt.Sprintf("%.6f,%.6f", lat, lon)], nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:serializers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.PostImage{}, &models.Like{}, &models.Comment{},
	))
	return store.New(db)
}

func seedPost(t *testing.T, s *store.Store, locationName *string, lat, lon *float64) (*models.User, *models.Post) {
	t.Helper()
	ctx := context.Background()
	author := &models.User{Username: "alice"}
	require.NoError(t, s.CreateUser(ctx, author))
	created, err := s.CreatePost(ctx, author.ID, "view me", locationName, lat, lon, []string{"posts/images/v.jpg"})
	require.NoError(t, err)
	post, err := s.GetPost(ctx, created.ID)
	require.NoError(t, err)
	return author, post
}

func TestPostViewLikesCountIsDerived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author, post := seedPost(t, s, nil, nil, nil)
	b := NewBuilder(s, nil, "/media")

	view, err := b.Post(ctx, post)
	require.NoError(t, err)
	assert.EqualValues(t, 0, view.LikesCount)
	assert.Equal(t, author.Username, view.Author.Username)
	require.Len(t, view.Images, 1)
	assert.Equal(t, "/media/posts/images/v.jpg", view.Images[0].URL)

	// A like created after the post was loaded still shows up: the count is
	// recomputed per read, never cached on the entity.
	liker := &models.User{Username: "bob"}
	require.NoError(t, s.CreateUser(ctx, liker))
	_, err = s.CreateLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)

	view, err = b.Post(ctx, post)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.LikesCount)
}

func TestPostViewLocationAddressFromGeocoder(t *testing.T) {
	s := newTestStore(t)
	lat, lon := 48.856610, 2.351499
	name := "Paris"
	_, post := seedPost(t, s, &name, &lat, &lon)

	geo := &stubGeocoder{reverse: map[string]string{
		"48.856610,2.351499": "Paris, Île-de-France, France",
	}}
	b := NewBuilder(s, geo, "/media")

	view, err := b.Post(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "Paris, Île-de-France, France", view.LocationAddress)
	require.NotNil(t, view.Location)
	assert.InDelta(t, lat, view.Location.Latitude, 1e-9)
	assert.Equal(t, "Paris", view.Location.Name)
}

func TestPostViewFallsBackToStoredName(t *testing.T) {
	s := newTestStore(t)
	lat, lon := 1.0, 2.0
	name := "Somewhere"
	_, post := seedPost(t, s, &name, &lat, &lon)

	// Lookup failure degrades to the stored name and never fails the read.
	b := NewBuilder(s, &stubGeocoder{broken: true}, "/media")
	view, err := b.Post(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "Somewhere", view.LocationAddress)
}

func TestPostViewNoLocation(t *testing.T) {
	s := newTestStore(t)
	_, post := seedPost(t, s, nil, nil, nil)

	b := NewBuilder(s, &stubGeocoder{}, "/media")
	view, err := b.Post(context.Background(), post)
	require.NoError(t, err)
	assert.Nil(t, view.Location)
	assert.Empty(t, view.LocationAddress)
}

func TestResolveCoordinates(t *testing.T) {
	s := newTestStore(t)
	geo := &stubGeocoder{forward: map[string]geocoder.Coordinates{
		"Paris": {Latitude: 48.856610, Longitude: 2.351499},
	}}
	b := NewBuilder(s, geo, "/media")
	ctx := context.Background()

	coords := b.ResolveCoordinates(ctx, "Paris")
	require.NotNil(t, coords)
	assert.InDelta(t, 48.856610, coords.Latitude, 1e-9)

	assert.Nil(t, b.ResolveCoordinates(ctx, "Unknown place"))

	// Service failure degrades to nil rather than propagating.
	b = NewBuilder(s, &stubGeocoder{broken: true}, "/media")
	assert.Nil(t, b.ResolveCoordinates(ctx, "Paris"))
}
