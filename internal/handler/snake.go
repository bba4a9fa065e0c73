package handler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// SnakeGame is a turn-based snake board: each input line advances the game
// one step. Fits a line-oriented client where real-time play is impossible.
type SnakeGame struct {
	W, H  int
	Body  []point // head first
	Dir   point
	Food  point
	Score int
	Over  bool
}

type point struct{ X, Y int }

const (
	snakeWidth  = 16
	snakeHeight = 10
)

// HandleSnake enters the snake minigame state.
func HandleSnake(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if u.InCombat {
		sess.Send("Not while fighting!")
		return
	}
	g := &SnakeGame{
		W:    snakeWidth,
		H:    snakeHeight,
		Body: []point{{snakeWidth / 2, snakeHeight / 2}},
		Dir:  point{1, 0},
	}
	g.placeFood(deps)
	deps.Snakes[sess.ID] = g
	sess.SetState(net.StateSnake)

	best := 0
	if scores, err := deps.Repo.LoadSnakeScores(context.Background()); err == nil {
		best = scores[u.Username]
	}
	sess.Send(fmt.Sprintf("-- Snake. Best so far: %d. --", best))
	sess.Send("w/a/s/d to steer, empty line to keep going, q to quit.")
	g.render(sess)
	sess.SendPrompt("snake> ")
}

func handleSnakeLine(sess *net.Session, line string, deps *Deps) {
	g := deps.Snakes[sess.ID]
	u := deps.UserOf(sess)
	if g == nil || u == nil {
		exitSnake(sess, deps)
		return
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit":
		endSnake(sess, u, g, deps)
		return
	case "w":
		g.steer(point{0, -1})
	case "s":
		g.steer(point{0, 1})
	case "a":
		g.steer(point{-1, 0})
	case "d":
		g.steer(point{1, 0})
	case "":
		// keep heading
	default:
		sess.Send("w/a/s/d, empty line, or q.")
		sess.SendPrompt("snake> ")
		return
	}

	g.step(deps)
	g.render(sess)
	if g.Over {
		sess.Send("Crunch. Game over.")
		endSnake(sess, u, g, deps)
		return
	}
	sess.SendPrompt("snake> ")
}

func endSnake(sess *net.Session, u *world.User, g *SnakeGame, deps *Deps) {
	sess.Send(fmt.Sprintf("Final score: %d.", g.Score))
	scores, err := deps.Repo.LoadSnakeScores(context.Background())
	if err == nil {
		if g.Score > scores[u.Username] {
			scores[u.Username] = g.Score
			if err := deps.Repo.SaveSnakeScores(context.Background(), scores); err != nil {
				deps.Log.Error("snake score save failed", zap.Error(err))
			} else {
				sess.Send("A new personal best!")
			}
		}
	} else {
		deps.Log.Error("snake score load failed", zap.Error(err))
	}
	exitSnake(sess, deps)
}

func exitSnake(sess *net.Session, deps *Deps) {
	delete(deps.Snakes, sess.ID)
	sess.SetState(net.StateGame)
	if u := deps.UserOf(sess); u != nil {
		Prompt(sess, u)
	}
}

// steer changes heading unless it would reverse into the neck.
func (g *SnakeGame) steer(d point) {
	if len(g.Body) > 1 && g.Body[0].X+d.X == g.Body[1].X && g.Body[0].Y+d.Y == g.Body[1].Y {
		return
	}
	g.Dir = d
}

func (g *SnakeGame) step(deps *Deps) {
	head := point{g.Body[0].X + g.Dir.X, g.Body[0].Y + g.Dir.Y}
	if head.X < 0 || head.X >= g.W || head.Y < 0 || head.Y >= g.H {
		g.Over = true
		return
	}
	for _, p := range g.Body {
		if p == head {
			g.Over = true
			return
		}
	}
	g.Body = append([]point{head}, g.Body...)
	if head == g.Food {
		g.Score++
		g.placeFood(deps)
	} else {
		g.Body = g.Body[:len(g.Body)-1]
	}
}

func (g *SnakeGame) placeFood(deps *Deps) {
	for {
		p := point{deps.Rand.Intn(g.W), deps.Rand.Intn(g.H)}
		occupied := false
		for _, b := range g.Body {
			if b == p {
				occupied = true
				break
			}
		}
		if !occupied {
			g.Food = p
			return
		}
	}
}

func (g *SnakeGame) render(sess *net.Session) {
	top := "+" + strings.Repeat("-", g.W) + "+"
	sess.Send(top)
	for y := 0; y < g.H; y++ {
		row := make([]byte, g.W)
		for x := range row {
			row[x] = ' '
		}
		if g.Food.Y == y {
			row[g.Food.X] = '*'
		}
		for i, p := range g.Body {
			if p.Y != y {
				continue
			}
			if i == 0 {
				row[p.X] = '@'
			} else {
				row[p.X] = 'o'
			}
		}
		sess.Send("|" + string(row) + "|")
	}
	sess.Send(top)
	sess.Send(fmt.Sprintf("Score: %d", g.Score))
}
