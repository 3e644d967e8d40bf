package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	actionTake     = "take"
	actionAssign   = "assign"
	actionBusy     = "busy"
	actionCancel   = "cancel"
	actionDeny     = "deny"
	actionStart    = "start"
	actionComplete = "complete"
	actionStatus   = "status"
)

// Callback — разобранные данные кнопки вида action:arg1[:arg2].
type Callback struct {
	Action string
	Args   []string
}

func ParseCallback(data string) (Callback, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Callback{}, fmt.Errorf("неверный формат callback: %q", data)
	}
	for _, p := range parts[1:] {
		if p == "" {
			return Callback{}, fmt.Errorf("пустой аргумент в callback: %q", data)
		}
	}
	return Callback{Action: parts[0], Args: parts[1:]}, nil
}

// ID возвращает i-й аргумент как идентификатор.
func (c Callback) ID(i int) (uint64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("в callback %s нет аргумента #%d", c.Action, i+1)
	}
	id, err := strconv.ParseUint(c.Args[i], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("неверный идентификатор %q в callback %s", c.Args[i], c.Action)
	}
	return id, nil
}

// LastID — идентификатор заявки всегда стоит последним.
func (c Callback) LastID() (uint64, error) {
	return c.ID(len(c.Args) - 1)
}

func callbackData(action string, args ...interface{}) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}
