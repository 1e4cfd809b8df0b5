package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// Log emits one JSON line with a message and alternating key/value pairs.
// A trailing odd key is dropped rather than panicking.
func Log(msg string, kv ...any) {
	entry := map[string]any{
		"ts":  time.Now().UTC().Format(time.RFC3339Nano),
		"msg": msg,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		entry[key] = kv[i+1]
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// Error logs a message with an error field attached.
func Error(msg string, err error, kv ...any) {
	kv = append(kv, "error", err.Error(), "level", "error")
	Log(msg, kv...)
}
