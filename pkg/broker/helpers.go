package broker

import (
	"fmt"
	"time"
)

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func stringsFormat(v interface{}) string {
	return fmt.Sprint(v)
}
