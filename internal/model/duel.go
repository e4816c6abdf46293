package model

// DuelPhase represents the current phase of a duel (tic-tac-toe) game
type DuelPhase string

const (
	DuelWaiting    DuelPhase = "waiting"
	DuelInProgress DuelPhase = "in_progress"
	DuelFinished   DuelPhase = "finished"
)

// DuelMark is a board cell value
type DuelMark string

const (
	MarkNone DuelMark = ""
	MarkX    DuelMark = "X"
	MarkO    DuelMark = "O"
)

// DuelBoardSize is the number of cells on the board
const DuelBoardSize = 9

// DuelState is the mutable game progress of a duel room
type DuelState struct {
	Phase DuelPhase
	Board [DuelBoardSize]DuelMark

	// TurnIdx indexes into the room's player list; seat 0 is X
	TurnIdx int

	Winner    PlayerID // empty on draw or unfinished game
	Draw      bool
	MoveCount int
}

// NewDuelState returns a fresh state in the waiting phase
func NewDuelState() *DuelState {
	return &DuelState{Phase: DuelWaiting}
}

// winLines are the eight three-in-a-row cell index triples
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// WinningMark returns the mark completing a line, or MarkNone
func (d *DuelState) WinningMark() DuelMark {
	for _, line := range winLines {
		m := d.Board[line[0]]
		if m != MarkNone && m == d.Board[line[1]] && m == d.Board[line[2]] {
			return m
		}
	}
	return MarkNone
}

// BoardFull reports whether every cell is occupied
func (d *DuelState) BoardFull() bool {
	return d.MoveCount >= DuelBoardSize
}

// MarkForSeat returns the mark assigned to a seat index
func MarkForSeat(seat int) DuelMark {
	if seat == 0 {
		return MarkX
	}
	return MarkO
}
