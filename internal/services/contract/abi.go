package contract

// ABI of the deployed ledger contract. Fixed at build time, the contract
// itself is out of scope.
const ledgerABI = `[
  {"type":"function","name":"getBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getRecentActivity","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"action","type":"uint8"},
    {"name":"amount","type":"uint256"},
    {"name":"recipient","type":"address"},
    {"name":"timestamp","type":"uint256"}
  ]}]},
  {"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`
