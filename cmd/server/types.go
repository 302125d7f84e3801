package main

import "github.com/earshot/earshot/pkg/earshot"

type ingestResponse struct {
	Status        string `json:"status"`
	ReceivedBytes int    `json:"received_bytes"`
}

type setupResponse struct {
	IsSetupCompleted bool `json:"is_setup_completed"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	ActiveSessions int    `json:"active_sessions"`
}

type clearBufferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type registerResponse struct {
	Status       string `json:"status"`
	SongID       string `json:"song_id"`
	Artist       string `json:"artist"`
	Album        string `json:"album,omitempty"`
	Title        string `json:"title"`
	Fingerprints int    `json:"fingerprints"`
}

type songsResponse struct {
	Status string             `json:"status"`
	Count  int                `json:"count"`
	Songs  []earshot.SongInfo `json:"songs"`
}

type errorResponse struct {
	Error string `json:"error"`
}
