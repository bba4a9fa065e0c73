package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mudgo/server/internal/world"
)

// WorldRepo marshals world state in and out of a Store. All game-state
// access happens on the game loop goroutine; the repo itself is stateless.
type WorldRepo struct {
	store Store
	log   *zap.Logger
}

func NewWorldRepo(store Store, log *zap.Logger) *WorldRepo {
	return &WorldRepo{store: store, log: log}
}

// LoadWorld populates a fresh State from the store: users, room state,
// item instances, NPC instances and the respawn queue.
func (r *WorldRepo) LoadWorld(ctx context.Context, st *world.State) error {
	users, err := r.store.LoadAll(ctx, ColUsers)
	if err != nil {
		return err
	}
	for key, doc := range users {
		u := &world.User{}
		if err := json.Unmarshal(doc, u); err != nil {
			return fmt.Errorf("user %s: %w", key, err)
		}
		if err := st.AddUser(u); err != nil {
			return err
		}
	}

	roomStates, err := r.store.LoadAll(ctx, ColRoomState)
	if err != nil {
		return err
	}
	for key, doc := range roomStates {
		rs := &world.RoomState{}
		if err := json.Unmarshal(doc, rs); err != nil {
			return fmt.Errorf("room state %s: %w", key, err)
		}
		st.RestoreRoomState(rs)
	}

	items, err := r.store.LoadAll(ctx, ColItems)
	if err != nil {
		return err
	}
	for key, doc := range items {
		i := &world.ItemInstance{}
		if err := json.Unmarshal(doc, i); err != nil {
			return fmt.Errorf("item %s: %w", key, err)
		}
		if err := st.AddItemInstance(i); err != nil {
			return err
		}
	}

	npcs, err := r.store.LoadAll(ctx, ColNpcs)
	if err != nil {
		return err
	}
	for key, doc := range npcs {
		n := &world.NpcInstance{}
		if err := json.Unmarshal(doc, n); err != nil {
			return fmt.Errorf("npc %s: %w", key, err)
		}
		st.RestoreNpc(n)
	}

	quests, err := r.store.LoadAll(ctx, ColQuests)
	if err != nil {
		return err
	}
	for key, doc := range quests {
		q := &world.Quest{}
		if err := json.Unmarshal(doc, q); err != nil {
			return fmt.Errorf("quest %s: %w", key, err)
		}
		if q.ID == "" {
			q.ID = key
		}
		if err := st.AddQuest(q); err != nil {
			return err
		}
	}

	respawnDoc, err := r.store.LoadOne(ctx, ColRespawns, "queue")
	if err == nil {
		var entries []*world.RespawnEntry
		if err := json.Unmarshal(respawnDoc, &entries); err != nil {
			return fmt.Errorf("respawn queue: %w", err)
		}
		st.RestoreRespawns(entries)
	} else if err != ErrNotFound {
		return err
	}

	r.log.Info("world loaded",
		zap.Int("users", st.UserCount()),
		zap.Int("items", st.ItemCount()),
		zap.Int("npcs", st.NpcCount()),
		zap.Int("respawns", st.PendingRespawns()),
	)
	return nil
}

// SaveUser persists one user immediately (logout, kick, admin edit).
func (r *WorldRepo) SaveUser(ctx context.Context, u *world.User) error {
	doc, err := MarshalDoc(u)
	if err != nil {
		return err
	}
	if err := r.store.SaveOne(ctx, ColUsers, u.Username, doc); err != nil {
		return err
	}
	u.Dirty = false
	return nil
}

// SaveDirtyUsers persists every user whose Dirty flag is set and clears the
// flags. Returns the number saved.
func (r *WorldRepo) SaveDirtyUsers(ctx context.Context, st *world.State) (int, error) {
	docs := map[string]json.RawMessage{}
	var dirty []*world.User
	var marshalErr error
	st.AllUsers(func(u *world.User) {
		if !u.Dirty || marshalErr != nil {
			return
		}
		doc, err := MarshalDoc(u)
		if err != nil {
			marshalErr = fmt.Errorf("user %s: %w", u.Username, err)
			return
		}
		docs[u.Username] = doc
		dirty = append(dirty, u)
	})
	if marshalErr != nil {
		return 0, marshalErr
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := r.store.SaveAll(ctx, ColUsers, docs); err != nil {
		return 0, err
	}
	for _, u := range dirty {
		u.Dirty = false
	}
	return len(docs), nil
}

// SaveWorldState persists room contents, item instances, NPC instances and
// the respawn queue as full snapshots.
func (r *WorldRepo) SaveWorldState(ctx context.Context, st *world.State) error {
	roomDocs := map[string]json.RawMessage{}
	var marshalErr error
	st.AllRoomState(func(rs *world.RoomState) {
		if marshalErr != nil {
			return
		}
		doc, err := MarshalDoc(rs)
		if err != nil {
			marshalErr = fmt.Errorf("room state %s: %w", rs.RoomID, err)
			return
		}
		roomDocs[rs.RoomID] = doc
	})
	if marshalErr != nil {
		return marshalErr
	}
	if err := r.store.ReplaceAll(ctx, ColRoomState, roomDocs); err != nil {
		return err
	}

	itemDocs := map[string]json.RawMessage{}
	st.AllItems(func(i *world.ItemInstance) {
		if marshalErr != nil {
			return
		}
		doc, err := MarshalDoc(i)
		if err != nil {
			marshalErr = fmt.Errorf("item %s: %w", i.InstanceID, err)
			return
		}
		itemDocs[i.InstanceID] = doc
	})
	if marshalErr != nil {
		return marshalErr
	}
	if err := r.store.ReplaceAll(ctx, ColItems, itemDocs); err != nil {
		return err
	}

	npcDocs := map[string]json.RawMessage{}
	st.AllNpcs(func(n *world.NpcInstance) {
		if marshalErr != nil {
			return
		}
		doc, err := MarshalDoc(n)
		if err != nil {
			marshalErr = fmt.Errorf("npc %s: %w", n.InstanceID, err)
			return
		}
		npcDocs[n.InstanceID] = doc
	})
	if marshalErr != nil {
		return marshalErr
	}
	if err := r.store.ReplaceAll(ctx, ColNpcs, npcDocs); err != nil {
		return err
	}

	respawnDoc, err := MarshalDoc(st.RespawnQueue())
	if err != nil {
		return fmt.Errorf("respawn queue: %w", err)
	}
	return r.store.SaveOne(ctx, ColRespawns, "queue", respawnDoc)
}

// DeleteUser removes a user record from the store.
func (r *WorldRepo) DeleteUser(ctx context.Context, username string) error {
	return r.store.Delete(ctx, ColUsers, username)
}

// BugReport is a persisted player bug submission.
type BugReport struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	RoomID    string    `json:"roomId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveBugReport appends a bug report under a fresh ID.
func (r *WorldRepo) SaveBugReport(ctx context.Context, report BugReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	doc, err := MarshalDoc(report)
	if err != nil {
		return err
	}
	return r.store.SaveOne(ctx, ColBugReports, report.ID, doc)
}

// SnakeScores maps username to best score in the snake minigame.
func (r *WorldRepo) LoadSnakeScores(ctx context.Context) (map[string]int, error) {
	doc, err := r.store.LoadOne(ctx, ColSnakeScores, "scores")
	if err == ErrNotFound {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}
	scores := map[string]int{}
	if err := json.Unmarshal(doc, &scores); err != nil {
		return nil, fmt.Errorf("snake scores: %w", err)
	}
	return scores, nil
}

func (r *WorldRepo) SaveSnakeScores(ctx context.Context, scores map[string]int) error {
	doc, err := MarshalDoc(scores)
	if err != nil {
		return err
	}
	return r.store.SaveOne(ctx, ColSnakeScores, "scores", doc)
}

// LoadMudConfig returns the persisted runtime-tunable config document, or
// ErrNotFound when none was ever saved.
func (r *WorldRepo) LoadMudConfig(ctx context.Context, out any) error {
	doc, err := r.store.LoadOne(ctx, ColMudConfig, "config")
	if err != nil {
		return err
	}
	return json.Unmarshal(doc, out)
}

func (r *WorldRepo) SaveMudConfig(ctx context.Context, cfg any) error {
	doc, err := MarshalDoc(cfg)
	if err != nil {
		return err
	}
	return r.store.SaveOne(ctx, ColMudConfig, "config", doc)
}
