package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"printwatch/internal/app"
	"printwatch/internal/dto"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	result, err := application.Manager().CaptureAndCheck(context.Background())

	response := dto.CheckResponse{Success: err == nil, Result: result}
	if err != nil {
		response.Error = err.Error()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if encErr := encoder.Encode(response); encErr != nil {
		log.Printf("Failed to encode result: %v", encErr)
	}

	application.Close()
	if err != nil {
		os.Exit(1)
	}
}
