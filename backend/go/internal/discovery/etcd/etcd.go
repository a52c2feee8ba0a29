package etcd

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"dataroom/backend/go/internal/config"
	"dataroom/backend/go/pkg/logger"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// keyPrefix 是所有服务实例在 etcd 中的根路径。
const keyPrefix = "/dataroom/services"

// ServiceDiscovery 基于 etcd 租约实现服务注册与发现。
type ServiceDiscovery struct {
	cli *clientv3.Client // etcd client
	ttl int64
	log *logger.Logger
}

// Registration 表示一次有效的服务注册，Stop 会撤销租约并删除实例键。
type Registration struct {
	key     string
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
	once    sync.Once
	sd      *ServiceDiscovery
}

// NewServiceDiscovery 创建一个新的 ServiceDiscovery。
// 参数:
//   - cfg: etcd 配置，Endpoints 不能为空
//   - log: 日志记录器，可以为 nil
func NewServiceDiscovery(cfg *config.EtcdConfig, log *logger.Logger) (*ServiceDiscovery, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("etcd endpoints are not configured")
	}
	if log == nil {
		log = logger.Nop()
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10
	}
	return &ServiceDiscovery{cli: cli, ttl: ttl, log: log}, nil
}

// ServiceKey 返回服务实例在 etcd 中的键。
func ServiceKey(serviceName, addr string) string {
	return path.Join(keyPrefix, serviceName, addr)
}

// Register 在 etcd 中以租约注册服务实例，并在后台保持租约存活。
// 参数:
//   - ctx: 仅用于注册过程本身
//   - serviceName: 服务名称
//   - addr: 实例地址
//
// 返回值:
//   - *Registration: 用于注销
//   - error: 注册失败时返回
func (s *ServiceDiscovery) Register(ctx context.Context, serviceName, addr string) (*Registration, error) {
	leaseResp, err := s.cli.Grant(ctx, s.ttl)
	if err != nil {
		return nil, err
	}

	key := ServiceKey(serviceName, addr)
	if _, err = s.cli.Put(ctx, key, addr, clientv3.WithLease(leaseResp.ID)); err != nil {
		return nil, err
	}

	// 续约不能绑定到调用方的 ctx，否则请求结束时租约就会失效。
	keepCtx, cancel := context.WithCancel(context.Background())
	keepAliveCh, err := s.cli.KeepAlive(keepCtx, leaseResp.ID)
	if err != nil {
		cancel()
		return nil, err
	}

	reg := &Registration{key: key, leaseID: leaseResp.ID, cancel: cancel, sd: s}
	go func() {
		for {
			select {
			case <-keepCtx.Done():
				return
			case _, ok := <-keepAliveCh:
				if !ok {
					s.log.WithField("key", key).Warn("etcd 租约已失效")
					return
				}
			}
		}
	}()

	s.log.WithField("key", key).Info("服务已注册到 etcd")
	return reg, nil
}

// Stop 停止续约并撤销租约，重复调用是安全的。
func (r *Registration) Stop(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		r.cancel()
		_, err = r.sd.cli.Revoke(ctx, r.leaseID)
	})
	return err
}

// Discover 返回某个服务当前注册的所有实例地址。
func (s *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, path.Join(keyPrefix, serviceName)+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, ev := range resp.Kvs {
		addrs = append(addrs, string(ev.Value))
	}

	return addrs, nil
}

// Close 关闭 etcd 客户端。
func (s *ServiceDiscovery) Close() error {
	return s.cli.Close()
}
