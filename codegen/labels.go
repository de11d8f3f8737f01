package codegen

import "fmt"

// frame holds the jump targets of the statement being lowered: where to
// continue afterwards, and where break and continue go ("" outside loops).
type frame struct {
	after string
	brk   string
	cont  string
}

type labelManager struct {
	next   int
	frames []frame
}

func (l *labelManager) newLabel() string {
	label := fmt.Sprintf("Label_%d", l.next)
	l.next++
	return label
}

func (l *labelManager) push(after, brk, cont string) {
	l.frames = append(l.frames, frame{after: after, brk: brk, cont: cont})
}

func (l *labelManager) pop() error {
	if len(l.frames) == 0 {
		return fmt.Errorf("label frame popped from an empty stack")
	}
	l.frames = l.frames[:len(l.frames)-1]
	return nil
}

func (l *labelManager) top() (frame, bool) {
	if len(l.frames) == 0 {
		return frame{}, false
	}
	return l.frames[len(l.frames)-1], true
}

func (l *labelManager) depth() int {
	return len(l.frames)
}
