package messaging

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	mu       sync.Mutex
	sent     []*sqs.SendMessageInput
	sendErrs map[string]error

	inbox   []types.Message
	deleted []string
	recvErr error
	recvs   int
}

func newFakeSQS() *fakeSQS {
	return &fakeSQS{sendErrs: map[string]error{}}
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErrs[aws.ToString(in.QueueUrl)]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.recvs++
	if f.recvErr != nil {
		err := f.recvErr
		f.recvErr = nil
		f.mu.Unlock()
		return nil, err
	}
	if len(f.inbox) > 0 {
		batch := f.inbox
		f.inbox = nil
		f.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: batch}, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) sentTo(queueURL string) []*sqs.SendMessageInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*sqs.SendMessageInput
	for _, in := range f.sent {
		if aws.ToString(in.QueueUrl) == queueURL {
			out = append(out, in)
		}
	}
	return out
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}
