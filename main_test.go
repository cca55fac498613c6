package main

import "testing"

func TestRedisOptionsURL(t *testing.T) {
	opts := redisOptions("redis://:secret@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestRedisOptionsManagedFallback(t *testing.T) {
	opts := redisOptions("cache.example.net:6380,password=secret,ssl=True")
	if opts.Addr != "cache.example.net:6380" {
		t.Fatalf("addr = %q", opts.Addr)
	}
	if opts.Password != "secret" {
		t.Fatalf("password = %q", opts.Password)
	}
	if opts.TLSConfig == nil {
		t.Fatal("ssl=True did not enable TLS")
	}
}
