// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
)

// ClassifyError maps Azure SDK errors to an OperationErrorCode. Response
// errors are classified by status and error code; anything else by message.
func ClassifyError(err error) resource.OperationErrorCode {
	if err == nil {
		return ""
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if code := classifyStatus(respErr.StatusCode, respErr.ErrorCode); code != "" {
			return code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resource.OperationErrorCodeServiceTimeout
	}
	return classifyMessage(err.Error())
}

func classifyStatus(status int, errorCode string) resource.OperationErrorCode {
	switch {
	case status == http.StatusNotFound:
		return resource.OperationErrorCodeNotFound
	case status == http.StatusForbidden:
		return resource.OperationErrorCodeAccessDenied
	case status == http.StatusUnauthorized:
		return resource.OperationErrorCodeInvalidCredentials
	case status == http.StatusConflict:
		return resource.OperationErrorCodeResourceConflict
	case status == http.StatusTooManyRequests:
		return resource.OperationErrorCodeThrottling
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return resource.OperationErrorCodeServiceTimeout
	case status >= http.StatusInternalServerError:
		return resource.OperationErrorCodeServiceInternalError
	case status == http.StatusBadRequest:
		if strings.Contains(errorCode, "QuotaExceeded") || strings.Contains(errorCode, "LimitExceeded") {
			return resource.OperationErrorCodeServiceLimitExceeded
		}
		return resource.OperationErrorCodeInvalidRequest
	}
	return ""
}

// messageMarkers is checked in order; the first code with a marker found in
// the error text wins.
var messageMarkers = []struct {
	code    resource.OperationErrorCode
	markers []string
}{
	{resource.OperationErrorCodeNotFound, []string{"NotFound", "404"}},
	{resource.OperationErrorCodeAccessDenied, []string{"AuthorizationFailed", "Forbidden", "403"}},
	{resource.OperationErrorCodeInvalidCredentials, []string{"Unauthorized", "AuthenticationFailed", "InvalidAuthenticationToken", "401"}},
	{resource.OperationErrorCodeResourceConflict, []string{"Conflict", "ResourceExists", "409"}},
	{resource.OperationErrorCodeThrottling, []string{"TooManyRequests", "Throttling", "429"}},
	{resource.OperationErrorCodeServiceInternalError, []string{"InternalServerError", "500"}},
	{resource.OperationErrorCodeServiceTimeout, []string{"Timeout"}},
	{resource.OperationErrorCodeServiceLimitExceeded, []string{"QuotaExceeded", "LimitExceeded"}},
	{resource.OperationErrorCodeInvalidRequest, []string{"InvalidParameter", "InvalidRequest", "BadRequest", "400"}},
	{resource.OperationErrorCodeNetworkFailure, []string{"connection refused", "network", "dial"}},
}

func classifyMessage(msg string) resource.OperationErrorCode {
	for _, m := range messageMarkers {
		for _, marker := range m.markers {
			if strings.Contains(msg, marker) {
				return m.code
			}
		}
	}
	return resource.OperationErrorCodeGeneralServiceException
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return err != nil && ClassifyError(err) == resource.OperationErrorCodeNotFound
}

// IgnoreNotFound drops errors meaning the resource is already gone. Deletes
// use it to stay idempotent.
func IgnoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}
