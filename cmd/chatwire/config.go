package main

import "time"

type Config struct {
	HintBufferSize            int           `env:"HINT_BUFFER_SIZE,default=1024"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=5s"`
	TypingTTL                 time.Duration `env:"TYPING_TTL,default=6s"`
	TypingSweepInterval       time.Duration `env:"TYPING_SWEEP_INTERVAL,default=2s"`
	DeleteWindow              time.Duration `env:"DELETE_WINDOW,default=15m"`
	BadgerGCInterval          time.Duration `env:"BADGER_GC_INTERVAL,default=10m"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	RedisAddr                 string        `env:"REDIS_ADDR"`
	LogLevel                  string        `env:"LOG_LEVEL,default=INFO"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
