package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// classifyError maps SDK errors onto AppErrors. A failed condition means
// different things per call site, so the caller passes what it should become;
// nil leaves it a database error.
func classifyError(operation string, err error, onConditionFailed *pkgerrors.AppError) error {
	if err == nil {
		return nil
	}

	if onConditionFailed != nil && isConditionFailure(err) {
		return onConditionFailed.WithCause(err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return pkgerrors.NewUnavailableError("dynamodb").WithCode(apiErr.ErrorCode()).WithCause(err)
		}
	}

	return pkgerrors.NewDatabaseError(operation, err)
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
