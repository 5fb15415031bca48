package config

import "testing"

func TestLoadSFTP(t *testing.T) {
	environ := []string{
		"SFTP_HOST=sftp.example.com",
		"SFTP_RANKIN_USER=rankin-reports",
		"SFTP_RANKIN_PASS=secret1",
		"SFTP_COUCHI_USERNAME=couchi-reports",
		"SFTP_COUCHI_PASSWORD=secret2",
		"SFTP_ORPHAN_USER=no-password-site",
		"DATABASE_URL=postgres://ignored",
		"MALFORMED",
	}

	cfg := loadSFTP(environ)

	creds, ok := cfg.CredentialsFor("RANKIN")
	if !ok {
		t.Fatal("RANKIN should be configured")
	}
	if creds.Host != "sftp.example.com" || creds.Username != "rankin-reports" || creds.Password != "secret1" {
		t.Errorf("RANKIN creds = %+v", creds)
	}

	// Long-form USERNAME/PASSWORD variables work too.
	if creds, ok := cfg.CredentialsFor("COUCHI"); !ok || creds.Username != "couchi-reports" {
		t.Errorf("COUCHI creds = %+v, ok = %v", creds, ok)
	}

	// A user with no matching password never makes it into the map.
	if _, ok := cfg.CredentialsFor("ORPHAN"); ok {
		t.Error("ORPHAN should not be configured without a password")
	}

	if _, ok := cfg.CredentialsFor("UNKNOWN"); ok {
		t.Error("unset site should not be configured")
	}
}

func TestCredentialsForIsCaseInsensitive(t *testing.T) {
	cfg := loadSFTP([]string{
		"SFTP_HOST=h",
		"SFTP_RANKIN_USER=u",
		"SFTP_RANKIN_PASS=p",
	})

	if _, ok := cfg.CredentialsFor("rankin"); !ok {
		t.Error("lowercase site code should resolve")
	}
}
