package config

import (
	"errors"

	supa "github.com/supabase-community/supabase-go"
)

var SupabaseClient *supa.Client

// InitSupabase initializes the shared Supabase client from settings.
func InitSupabase(s *Settings) error {
	if s.Supabase.URL == "" || s.Supabase.ServiceKey == "" {
		return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}

	client, err := supa.NewClient(s.Supabase.URL, s.Supabase.ServiceKey, nil)
	if err != nil {
		return err
	}

	SupabaseClient = client
	if Log != nil {
		Log.Info("Supabase client initialized successfully.")
	}
	return nil
}
