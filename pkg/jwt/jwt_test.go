package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/facturalo/emision-api/pkg/jwt"
)

const (
	testSecret    = "clave-de-prueba"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
)

func TestGenerateYParse_RoundTrip(t *testing.T) {
	token, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "emision-api", 60)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, companyID, err := pkgjwt.Parse(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
	assert.Equal(t, testCompanyID, companyID)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "emision-api", 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secreto", token)
	assert.Error(t, err, "un token firmado con otro secreto debe rechazarse")
}

func TestParse_TokenExpirado(t *testing.T) {
	token, err := pkgjwt.Generate(testSecret, testUserID, testCompanyID, "emision-api", -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(testSecret, token)
	assert.Error(t, err, "un token vencido debe rechazarse")
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", testUserID, testCompanyID, "emision-api", 60)
	assert.Error(t, err)
}
