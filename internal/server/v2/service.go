// Package v2 is the gRPC endpoint of tweakscan. It serves the unary parts of the blindbit
// oracle service, tweaks are computed per request like on the http api.
package v2

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-lib/proto/pb"
	"github.com/setavenger/blindbit-lib/utils"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/setavenger/blindbit-tweakscan/internal/indexer"
)

// OracleService implements GetInfo, GetBlockHashByHeight and GetTweakArray.
// Index and stream calls need a synced index and stay unimplemented.
type OracleService struct {
	provider chain.Provider
	scanner  *indexer.Scanner
	pb.UnimplementedOracleServiceServer
}

func NewOracleService(provider chain.Provider, scanner *indexer.Scanner) *OracleService {
	return &OracleService{
		provider: provider,
		scanner:  scanner,
	}
}

// GetInfo reports a tweaks only oracle, there is no sync height
func (s *OracleService) GetInfo(ctx context.Context, _ *emptypb.Empty) (*pb.InfoResponse, error) {
	return &pb.InfoResponse{
		Network:    config.Chain,
		TweaksOnly: true,
	}, nil
}

// GetBlockHashByHeight returns the block hash for a given height
func (s *OracleService) GetBlockHashByHeight(
	ctx context.Context, req *pb.BlockHeightRequest,
) (*pb.BlockHashResponse, error) {
	height, err := requestHeight(req.BlockHeight)
	if err != nil {
		return nil, err
	}

	blockHash, err := s.provider.GetBlockHash(ctx, height)
	if err != nil {
		logging.L.Err(err).
			Uint64("height", req.BlockHeight).
			Msg("failed pulling blockhash for height")
		return nil, statusFromError(err)
	}

	return &pb.BlockHashResponse{
		BlockHash: utils.ReverseBytesCopy(blockHash[:]),
	}, nil
}

// GetTweakArray returns tweaks for a specific block height
func (s *OracleService) GetTweakArray(
	ctx context.Context, req *pb.BlockHeightRequest,
) (*pb.TweakArray, error) {
	height, err := requestHeight(req.BlockHeight)
	if err != nil {
		return nil, err
	}

	result, err := s.scanner.ScanBlockHeight(ctx, height)
	if err != nil {
		return nil, statusFromError(err)
	}

	tweaks := make([][]byte, len(result.Tweaks))
	for i := range result.Tweaks {
		tweaks[i] = result.Tweaks[i].Tweak[:]
	}

	return &pb.TweakArray{
		BlockIdentifier: blockIdentifier(&result.BlockHash, req.BlockHeight),
		Tweaks:          tweaks,
	}, nil
}

func blockIdentifier(blockHash *chainhash.Hash, height uint64) *pb.BlockIdentifier {
	return &pb.BlockIdentifier{
		BlockHash:   utils.ReverseBytesCopy(blockHash[:]),
		BlockHeight: height,
	}
}

func requestHeight(height uint64) (int64, error) {
	if height > math.MaxInt64 {
		return 0, status.Errorf(codes.InvalidArgument, "block height %d out of range", height)
	}
	return int64(height), nil
}

// statusFromError uses the same classes as the http api
func statusFromError(err error) error {
	var scanErr *indexer.ScanError
	switch {
	case errors.As(err, &scanErr):
		return status.Errorf(codes.Internal, "block scan failed at tx %s", scanErr.Txid)
	case errors.Is(err, chain.ErrNotFound):
		return status.Error(codes.NotFound, "block not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case chain.IsRPCError(err), errors.Is(err, chain.ErrUnexpectedData):
		return status.Error(codes.Internal, "node returned an error")
	default:
		return status.Error(codes.Unavailable, "could not retrieve data from node")
	}
}
