package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/cohesivestack/valgo"
	"github.com/mark3labs/mcp-go/mcp"
)

const DefaultDiceFaces = 6

/*
Dice rolls a die with a caller chosen number of faces. Roll is
replaceable so results can be fixed in tests.
*/
type Dice struct {
	Roll func(faces int) int
}

func NewDice() *Dice {
	return &Dice{
		Roll: func(faces int) int {
			return rand.IntN(faces) + 1
		},
	}
}

func (dice *Dice) Declaration() mcp.Tool {
	return mcp.NewTool(
		"dice",
		mcp.WithDescription("Rolls a die with the given number of faces and returns the face that came up."),
		mcp.WithNumber(
			"dice",
			mcp.Description("Number of faces of the die."),
			mcp.Min(1),
			mcp.DefaultNumber(DefaultDiceFaces),
		),
	)
}

func (dice *Dice) Tool() Tool {
	return Tool{
		Declaration: dice.Declaration(),
		Handler:     dice.Handle,
	}
}

func (dice *Dice) Handle(ctx context.Context, args map[string]any) (string, error) {
	faces, err := diceFaces(args)

	if err != nil {
		return "", err
	}

	return strconv.Itoa(dice.Roll(faces)), nil
}

func diceFaces(args map[string]any) (int, error) {
	raw, ok := args["dice"]

	if !ok || raw == nil {
		return DefaultDiceFaces, nil
	}

	var faces float64

	switch v := raw.(type) {
	case float64:
		faces = v
	case float32:
		faces = float64(v)
	case int:
		faces = float64(v)
	case int64:
		faces = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)

		if err != nil {
			return 0, fmt.Errorf("dice must be a number, got %q", v)
		}

		faces = parsed
	default:
		return 0, fmt.Errorf("dice must be a number, got %T", raw)
	}

	val := valgo.Is(
		valgo.Number(faces, "dice").GreaterOrEqualTo(1),
	).Is(
		valgo.Number(faces, "dice").EqualTo(float64(int(faces)), "{{title}} must be a whole number"),
	)

	if !val.Valid() {
		return 0, val.Error()
	}

	return int(faces), nil
}
