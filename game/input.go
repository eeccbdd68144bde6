package game

import "fmt"

// InputKind 输入种类（封闭集合）
type InputKind uint8

const (
	InputMove InputKind = iota + 1
	InputRotate
	InputInteract
)

func (k InputKind) String() string {
	switch k {
	case InputMove:
		return "move"
	case InputRotate:
		return "rotate"
	case InputInteract:
		return "interact"
	default:
		return fmt.Sprintf("InputKind(%d)", uint8(k))
	}
}

// Input 单条玩家输入；Dir 仅对 move/rotate 有意义，取值 ±1
type Input struct {
	Kind InputKind
	Dir  int
}

func Move(dir int) Input   { return Input{Kind: InputMove, Dir: dir} }
func Rotate(dir int) Input { return Input{Kind: InputRotate, Dir: dir} }
func Interact() Input      { return Input{Kind: InputInteract} }

// QueuedInput 排队等待下一个 Tick 处理的输入
type QueuedInput struct {
	ActorID string
	Input   Input
}

// Outcome 输入执行结果。被拒绝不是错误，只是没有状态变化
type Outcome uint8

const (
	Applied Outcome = iota
	RejectedNoTile
	RejectedUnknownActor
	RejectedNoOrb
	RejectedBadInput
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedNoTile:
		return "rejected_no_tile"
	case RejectedUnknownActor:
		return "rejected_unknown_actor"
	case RejectedNoOrb:
		return "rejected_no_orb"
	case RejectedBadInput:
		return "rejected_bad_input"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// InputResult 记录某条输入的处理结果，供测试与指标使用
type InputResult struct {
	ActorID string
	Input   Input
	Outcome Outcome
}
