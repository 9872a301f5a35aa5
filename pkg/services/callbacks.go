package services

import (
	"fmt"
	"strconv"
	"strings"
)

func parseCallbackID(data, prefix string) (int64, error) {
	raw, found := strings.CutPrefix(data, prefix)
	if !found {
		return 0, fmt.Errorf("callback data %q has no %q prefix", data, prefix)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing callback id %q: %w", raw, err)
	}

	return id, nil
}
