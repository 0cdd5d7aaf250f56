package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type owned struct {
	owner uint
	kind  Kind
}

func (o owned) OwnerID() uint { return o.owner }
func (o owned) Kind() Kind    { return o.kind }

var (
	alice = Subject{UserID: 1, Username: "alice", Authenticated: true}
	bob   = Subject{UserID: 2, Username: "bob", Authenticated: true}
	admin = Subject{UserID: 3, Username: "admin", Superuser: true, Authenticated: true}
)

func TestAuthorizeReadsArePublic(t *testing.T) {
	res := owned{owner: 1, kind: KindPost}
	for _, action := range []Action{ActionList, ActionRetrieve} {
		assert.NoError(t, Authorize(Anonymous, action, res))
		assert.NoError(t, Authorize(bob, action, res))
	}
}

func TestAuthorizeMutationsRequireAuthentication(t *testing.T) {
	res := owned{owner: 1, kind: KindComment}
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		err := Authorize(Anonymous, action, res)
		assert.ErrorIs(t, err, ErrNotAuthenticated, "action %s", action)
	}
}

func TestAuthorizeOwnerOnly(t *testing.T) {
	kinds := []Kind{KindPost, KindImage, KindLike, KindComment}
	for _, kind := range kinds {
		res := owned{owner: alice.UserID, kind: kind}
		for _, action := range []Action{ActionUpdate, ActionDelete} {
			assert.NoError(t, Authorize(alice, action, res), "%s %s by owner", action, kind)
			assert.ErrorIs(t, Authorize(bob, action, res), ErrNotOwner, "%s %s by stranger", action, kind)
		}
	}
}

func TestAuthorizeSuperuserOverridesPostFamilyButNotLikes(t *testing.T) {
	for _, kind := range []Kind{KindPost, KindImage, KindComment} {
		res := owned{owner: alice.UserID, kind: kind}
		assert.NoError(t, Authorize(admin, ActionDelete, res), "superuser delete %s", kind)
		assert.NoError(t, Authorize(admin, ActionUpdate, res), "superuser update %s", kind)
	}

	like := owned{owner: alice.UserID, kind: KindLike}
	assert.ErrorIs(t, Authorize(admin, ActionDelete, like), ErrNotOwner)
	// A superuser still deletes its own like as a plain owner.
	ownLike := owned{owner: admin.UserID, kind: KindLike}
	assert.NoError(t, Authorize(admin, ActionDelete, ownLike))
}
