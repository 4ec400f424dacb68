package contracts

// ERC20ABI is the subset of the funding token surface in use.
const ERC20ABI = `[
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

// PoolABI is the pool contract surface. Every mutating call pulls the
// platform fee, plus any principal, from the caller's token allowance.
const PoolABI = `[
  {"type":"function","name":"createPool","stateMutability":"nonpayable","inputs":[{"name":"title","type":"string"},{"name":"unitPrice","type":"uint256"},{"name":"maxUnits","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"seedAmount","type":"uint256"}],"outputs":[{"name":"poolId","type":"uint256"}]},
  {"type":"function","name":"buyUnits","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"units","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"contribute","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"endPool","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approveResult","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"approved","type":"bool"}],"outputs":[]},
  {"type":"event","name":"PoolCreated","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"title","type":"string","indexed":false},{"name":"unitPrice","type":"uint256","indexed":false},{"name":"maxUnits","type":"uint256","indexed":false},{"name":"deadline","type":"uint256","indexed":false}]},
  {"type":"event","name":"UnitsBought","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"units","type":"uint256","indexed":false},{"name":"paid","type":"uint256","indexed":false}]},
  {"type":"event","name":"Contributed","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"contributor","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"PoolEnded","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"endedBy","type":"address","indexed":true}]},
  {"type":"event","name":"ResultApproved","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"approved","type":"bool","indexed":false}]}
]`
