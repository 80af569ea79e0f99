package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/hyperledger-labs/yui-remote-signer/internal/telemetry"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/stretchr/testify/assert"
)

const (
	testToken               = "test-token"
	testKeyName             = "test-key-name"
	testPubKeyValue         = "ng+ab41LawVupIXX3ocMn+AfV2W1DEMCfjAdtrwXND8="
	testPayloadToSignBase64 = "cXFxcXFxcXFxcXFxcXFxcXFxcXE="
	testSignature           = "pNcc/FAUu+Ta7itVegaMUMGqXYkzE777y3kOe8AtdRTgLbA8eFnrKbbX/m7zoiC+vArsIUJ1aMCEDRjDK3ZsBg=="
)

var testPayloadToSign = []byte("qqqqqqqqqqqqqqqqqqqq")

// curl --header "X-Vault-Token: hvs.<...valid.token...>" http://127.0.0.1:8200/v1/auth/token/lookup-self
const testTokenResp = `{"request_id":"119fcc9e-85e2-1fcf-c2a2-96cfb20f7446","lease_id":"","renewable":false,"lease_duration":0,"data":{"accessor":"k1g6PqNWVIlKK9NDCWLiTvrG","creation_time":1661247016,"creation_ttl":2764800,"display_name":"token","entity_id":"","expire_time":"2022-09-24T09:30:16.898359776Z","explicit_max_ttl":0,"id":"hvs.CAESIEzWRWLvyYLGlYsCRI_Vt653K26b-cx_lrxBlFo3_2GBGh4KHGh2cy5GVzZ5b25nMVFpSkwzM1B1eHM2Y0ZqbXA","issue_time":"2022-08-23T09:30:16.898363509Z","meta":null,"num_uses":0,"orphan":false,"path":"auth/token/create","policies":["tmkms-transit-sign-policy"],"renewable":false,"ttl":2758823,"type":"service"},"wrap_info":null,"warnings":null,"auth":null}`

// curl --header "X-Vault-Token: $VAULT_TOKEN" "${VAULT_ADDR}/v1/transit/keys/<signing_key_name>"
const testReadKeyResp = `{"request_id":"9cb10d0a-1877-6da5-284b-8ece4b131ae3","lease_id":"","renewable":false,"lease_duration":0,"data":{"allow_plaintext_backup":false,"auto_rotate_period":0,"deletion_allowed":false,"derived":false,"exportable":false,"imported_key":false,"keys":{"1":{"creation_time":"2022-08-23T09:30:16.676998915Z","name":"ed25519","public_key":"ng+ab41LawVupIXX3ocMn+AfV2W1DEMCfjAdtrwXND8="}},"latest_version":1,"min_available_version":0,"min_decryption_version":1,"min_encryption_version":0,"name":"cosmoshub-sign-key","supports_decryption":false,"supports_derivation":true,"supports_encryption":false,"supports_signing":true,"type":"ed25519"},"wrap_info":null,"warnings":null,"auth":null}`

// curl --request POST --header "X-Vault-Token: $VAULT_TOKEN" "${VAULT_ADDR}/v1/transit/sign/<..key_name...>" -d '{"input":"base64 encoded"}'
const testSignResp = `{"request_id":"13534911-8e98-9a0f-a701-e9a7736140e2","lease_id":"","renewable":false,"lease_duration":0,"data":{"key_version":1,"signature":"vault:v1:pNcc/FAUu+Ta7itVegaMUMGqXYkzE777y3kOe8AtdRTgLbA8eFnrKbbX/m7zoiC+vArsIUJ1aMCEDRjDK3ZsBg=="},"wrap_info":null,"warnings":null,"auth":null}`

func setupTest(t *testing.T) {
	err := log.InitLoggerWithWriter("DEBUG", "text", os.Stdout, false)
	assert.NoError(t, err)
	err = telemetry.InitializeMetrics()
	assert.NoError(t, err)
}

func handleLookupSelf(t *testing.T, mux *http.ServeMux) {
	mux.HandleFunc("/v1/auth/token/lookup-self", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Vault-Token"); got != testToken {
			t.Errorf("unexpected vault token: %s", got)
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"errors":["permission denied"]}`)
			return
		}
		fmt.Fprint(w, testTokenResp)
	})
}

func newTestConfig(addr string) SignerConfig {
	return SignerConfig{
		Type:          TypeName,
		Addr:          addr,
		Token:         testToken,
		KeyName:       testKeyName,
		RetryAttempts: 1,
	}
}

func newTestClient(t *testing.T, mux *http.ServeMux) *SigningClient {
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := Connect(context.Background(), newTestConfig(server.URL))
	assert.NoError(t, err, "Connect should succeed")
	return client
}

func TestConnect(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := Connect(context.Background(), newTestConfig(server.URL))
	assert.NoError(t, err, "Connect should succeed")
	assert.NotNil(t, client)
}

func TestConnectBadToken(t *testing.T) {
	setupTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":["permission denied"]}`)
	}))
	t.Cleanup(server.Close)

	_, err := Connect(context.Background(), newTestConfig(server.URL))
	assert.ErrorIs(t, err, ErrTransport, "a rejected token lookup should fail the connect")
}

func TestConnectNoData(t *testing.T) {
	setupTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"request_id":"x","data":null}`)
	}))
	t.Cleanup(server.Close)

	_, err := Connect(context.Background(), newTestConfig(server.URL))
	assert.ErrorIs(t, err, ErrTransport, "a lookup without data should fail the connect")
}

func TestPublicKey(t *testing.T) {
	setupTest(t)

	readKeyCalls := 0
	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/keys/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		readKeyCalls++
		if got := r.Header.Get("X-Vault-Token"); got != testToken {
			t.Errorf("unexpected vault token: %s", got)
		}
		fmt.Fprint(w, testReadKeyResp)
	})

	client := newTestClient(t, mux)

	want, err := base64.StdEncoding.DecodeString(testPubKeyValue)
	assert.NoError(t, err)

	pubKey, err := client.PublicKey(context.Background())
	assert.NoError(t, err, "PublicKey should succeed")
	assert.Equal(t, want, pubKey[:], "PublicKey should return the decoded key")

	// the second call must be served from the cache
	pubKey, err = client.PublicKey(context.Background())
	assert.NoError(t, err, "PublicKey should succeed")
	assert.Equal(t, want, pubKey[:], "PublicKey should return the cached key")

	assert.Equal(t, 1, readKeyCalls, "the key must be fetched exactly once")
}

func TestPublicKeyTruncatesOversizedKey(t *testing.T) {
	setupTest(t)

	raw, err := base64.StdEncoding.DecodeString(testPubKeyValue)
	assert.NoError(t, err)
	oversized := base64.StdEncoding.EncodeToString(append(append([]byte{}, raw...), 0xaa))

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/keys/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"keys":{"1":{"creation_time":"2022-08-23T09:30:16.676998915Z","name":"ed25519","public_key":"%s"}}}}`, oversized)
	})

	client := newTestClient(t, mux)

	pubKey, err := client.PublicKey(context.Background())
	assert.NoError(t, err, "PublicKey should succeed")
	assert.Equal(t, raw, pubKey[:], "an oversized key must be truncated to 32 bytes")
}

func TestPublicKeyErrors(t *testing.T) {
	setupTest(t)

	shortKey := base64.StdEncoding.EncodeToString(make([]byte, 16))

	cases := map[string]struct {
		body    string
		wantErr error
	}{
		"no data": {
			body:    `{"request_id":"x","data":null}`,
			wantErr: ErrInvalidPubKey,
		},
		"no versions": {
			body:    `{"data":{"keys":{}}}`,
			wantErr: ErrInvalidPubKey,
		},
		"missing public_key": {
			body:    `{"data":{"keys":{"1":{"name":"ed25519"}}}}`,
			wantErr: ErrInvalidPubKey,
		},
		"missing key type": {
			body:    fmt.Sprintf(`{"data":{"keys":{"1":{"public_key":"%s"}}}}`, testPubKeyValue),
			wantErr: ErrInvalidPubKey,
		},
		"unexpected key type": {
			body:    fmt.Sprintf(`{"data":{"keys":{"1":{"name":"ecdsa-p256","public_key":"%s"}}}}`, testPubKeyValue),
			wantErr: ErrInvalidPubKey,
		},
		"broken base64": {
			body:    `{"data":{"keys":{"1":{"name":"ed25519","public_key":"!!!"}}}}`,
			wantErr: ErrDecode,
		},
		"short key": {
			body:    fmt.Sprintf(`{"data":{"keys":{"1":{"name":"ed25519","public_key":"%s"}}}}`, shortKey),
			wantErr: ErrInvalidRawKey,
		},
	}

	for n, c := range cases {
		t.Run(n, func(t2 *testing.T) {
			mux := http.NewServeMux()
			handleLookupSelf(t2, mux)
			mux.HandleFunc("/v1/transit/keys/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, c.body)
			})

			client := newTestClient(t2, mux)

			_, err := client.PublicKey(context.Background())
			assert.ErrorIs(t2, err, c.wantErr, "PublicKey should fail")
		})
	}
}

func TestPublicKeySelectsLatestVersion(t *testing.T) {
	setupTest(t)

	raw, err := base64.StdEncoding.DecodeString(testPubKeyValue)
	assert.NoError(t, err)
	oldKey := base64.StdEncoding.EncodeToString(make([]byte, 32))

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/keys/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"keys":{"1":{"name":"ed25519","public_key":"%s"},"2":{"name":"ed25519","public_key":"%s"},"10":{"name":"ed25519","public_key":"%s"}}}}`, oldKey, oldKey, testPubKeyValue)
	})

	client := newTestClient(t, mux)

	pubKey, err := client.PublicKey(context.Background())
	assert.NoError(t, err, "PublicKey should succeed")
	assert.Equal(t, raw, pubKey[:], "the highest key version must be selected")
}

func TestPublicKeyFailureIsNotCached(t *testing.T) {
	setupTest(t)

	readKeyCalls := 0
	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/keys/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		readKeyCalls++
		if readKeyCalls == 1 {
			fmt.Fprintf(w, `{"data":{"keys":{"1":{"name":"ecdsa-p256","public_key":"%s"}}}}`, testPubKeyValue)
			return
		}
		fmt.Fprint(w, testReadKeyResp)
	})

	client := newTestClient(t, mux)

	_, err := client.PublicKey(context.Background())
	assert.ErrorIs(t, err, ErrInvalidPubKey, "the first fetch should fail")

	want, err := base64.StdEncoding.DecodeString(testPubKeyValue)
	assert.NoError(t, err)

	pubKey, err := client.PublicKey(context.Background())
	assert.NoError(t, err, "the second fetch should succeed")
	assert.Equal(t, want, pubKey[:])

	assert.Equal(t, 2, readKeyCalls, "a failed fetch must not be cached")
}

func TestSign(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/sign/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Vault-Token"); got != testToken {
			t.Errorf("unexpected vault token: %s", got)
		}
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`{"input":"%s"}`, testPayloadToSignBase64), string(body), "the payload must be submitted base64 encoded")
		fmt.Fprint(w, testSignResp)
	})

	client := newTestClient(t, mux)

	want, err := base64.StdEncoding.DecodeString(testSignature)
	assert.NoError(t, err)

	signature, err := client.Sign(context.Background(), testPayloadToSign)
	assert.NoError(t, err, "Sign should succeed")
	assert.Equal(t, want, signature[:], "Sign should return the decoded signature")
}

func TestSignEmptyMessage(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/sign/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		t.Error("the sign endpoint must not be called for an empty message")
		fmt.Fprint(w, testSignResp)
	})

	client := newTestClient(t, mux)

	_, err := client.Sign(context.Background(), []byte{})
	assert.ErrorIs(t, err, ErrEmptyMessage, "an empty message must be rejected")
}

func TestSignOversizedMessage(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/sign/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
		t.Error("the sign endpoint must not be called for an oversized message")
		fmt.Fprint(w, testSignResp)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	config := newTestConfig(server.URL)
	config.MaxMessageSize = 10

	client, err := Connect(context.Background(), config)
	assert.NoError(t, err)

	_, err = client.Sign(context.Background(), testPayloadToSign)
	assert.ErrorIs(t, err, ErrOversizedMessage, "a message over the limit must be rejected")
}

func TestSignErrors(t *testing.T) {
	setupTest(t)

	shortSignature := base64.StdEncoding.EncodeToString(make([]byte, 32))

	cases := map[string]struct {
		body    string
		wantErr error
	}{
		"no data": {
			body:    `{"request_id":"x","data":null}`,
			wantErr: ErrNoSignature,
		},
		"missing prefix": {
			body:    fmt.Sprintf(`{"data":{"key_version":1,"signature":"%s"}}`, testSignature),
			wantErr: ErrInvalidSignature,
		},
		"too many parts": {
			body:    fmt.Sprintf(`{"data":{"key_version":1,"signature":"vault:v1:extra:%s"}}`, testSignature),
			wantErr: ErrInvalidSignature,
		},
		"broken base64": {
			body:    `{"data":{"key_version":1,"signature":"vault:v1:!!!"}}`,
			wantErr: ErrDecode,
		},
		"short signature": {
			body:    fmt.Sprintf(`{"data":{"key_version":1,"signature":"vault:v1:%s"}}`, shortSignature),
			wantErr: ErrInvalidSignature,
		},
	}

	for n, c := range cases {
		t.Run(n, func(t2 *testing.T) {
			mux := http.NewServeMux()
			handleLookupSelf(t2, mux)
			mux.HandleFunc("/v1/transit/sign/"+testKeyName, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, c.body)
			})

			client := newTestClient(t2, mux)

			_, err := client.Sign(context.Background(), testPayloadToSign)
			assert.ErrorIs(t2, err, c.wantErr, "Sign should fail")
		})
	}
}

func TestWrappingKey(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/wrapping_key", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"public_key":"-----BEGIN PUBLIC KEY-----\nMIICIjANBgkqhkiG9w0BAQEFAAOCAg8AMIICCgKCAgEA\n-----END PUBLIC KEY-----\n"}}`)
	})

	client := newTestClient(t, mux)

	key, err := client.WrappingKey(context.Background())
	assert.NoError(t, err, "WrappingKey should succeed")
	assert.Equal(t, "MIICIjANBgkqhkiG9w0BAQEFAAOCAg8AMIICCgKCAgEA", key, "the second PEM line must be returned")
}

func TestWrappingKeyErrors(t *testing.T) {
	setupTest(t)

	cases := map[string]struct {
		body string
	}{
		"no data": {
			body: `{"request_id":"x","data":null}`,
		},
		"single line": {
			body: `{"data":{"public_key":"no pem here"}}`,
		},
	}

	for n, c := range cases {
		t.Run(n, func(t2 *testing.T) {
			mux := http.NewServeMux()
			handleLookupSelf(t2, mux)
			mux.HandleFunc("/v1/transit/wrapping_key", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, c.body)
			})

			client := newTestClient(t2, mux)

			_, err := client.WrappingKey(context.Background())
			assert.ErrorIs(t2, err, ErrInvalidPubKey, "WrappingKey should fail")
		})
	}
}

func TestExportKey(t *testing.T) {
	setupTest(t)

	mux := http.NewServeMux()
	handleLookupSelf(t, mux)
	mux.HandleFunc("/v1/transit/export/encryption-key/other-key", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"name":"other-key","type":"rsa-4096","keys":{"1":"v1-material","2":"v2-material"}}}`)
	})

	client := newTestClient(t, mux)

	key, err := client.ExportKey(context.Background(), "encryption-key", "other-key")
	assert.NoError(t, err, "ExportKey should succeed")
	assert.Equal(t, "v2-material", key, "the latest key version must be returned")
}

func TestExportKeyErrors(t *testing.T) {
	setupTest(t)

	cases := map[string]struct {
		body string
	}{
		"no data": {
			body: `{"request_id":"x","data":null}`,
		},
		"no versions": {
			body: `{"data":{"name":"other-key","type":"rsa-4096","keys":{}}}`,
		},
	}

	for n, c := range cases {
		t.Run(n, func(t2 *testing.T) {
			mux := http.NewServeMux()
			handleLookupSelf(t2, mux)
			mux.HandleFunc("/v1/transit/export/encryption-key/other-key", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, c.body)
			})

			client := newTestClient(t2, mux)

			_, err := client.ExportKey(context.Background(), "encryption-key", "other-key")
			assert.ErrorIs(t2, err, ErrInvalidPubKey, "ExportKey should fail")
		})
	}
}

func TestRetryOnServerError(t *testing.T) {
	setupTest(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"errors":["internal error"]}`)
			return
		}
		fmt.Fprint(w, testTokenResp)
	}))
	t.Cleanup(server.Close)

	config := newTestConfig(server.URL)
	config.RetryAttempts = 3
	config.RetryInterval = "1ms"

	_, err := Connect(context.Background(), config)
	assert.NoError(t, err, "Connect should succeed after retries")
	assert.Equal(t, 3, calls, "the request must be retried until it succeeds")
}

func TestNoRetryOnClientError(t *testing.T) {
	setupTest(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":["permission denied"]}`)
	}))
	t.Cleanup(server.Close)

	config := newTestConfig(server.URL)
	config.RetryAttempts = 3
	config.RetryInterval = "1ms"

	_, err := Connect(context.Background(), config)
	assert.ErrorIs(t, err, ErrTransport, "Connect should fail")
	assert.Equal(t, 1, calls, "a client error must not be retried")
}
